// Package linkdriver is a minimal consumer of the parlib archive format for
// the link stage (spec §6, SPEC_FULL §6): it reads a built archive,
// verifies its feature bits and toolchain/target compatibility hashes,
// selects an ObjectArchive chunk by lane precedence, and materializes it to
// a temp file as a LinkPlan an external LLD-compatible linker would
// consume. It never invokes a real linker (machine-code generation is out
// of scope); it stops at producing the plan, grounded on the teacher's
// internal/link/linker.go resolution-and-reporting shape.
package linkdriver

import (
	"os"

	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/parlib"
)

// lanePrecedence is spec §6's ObjectArchive selection order: "Pcore > Prt >
// Pstd > any".
var lanePrecedence = []parlib.Lane{parlib.LanePcore, parlib.LanePrt, parlib.LanePstd}

// Options configures one linkdriver run. EnvOptions fills the hash/root
// fields from the environment variables spec §6 lists ("Environment
// variables (consumed)"); Plan itself reads only the Options it is given
// and leaves empty fields empty.
type Options struct {
	ArchivePath string

	// ExpectedFeatureBits, when non-zero, is a mask of feature bits the
	// archive must have all of; a missing bit is a compatibility gate
	// failure (spec §6: "compatibility gates").
	ExpectedFeatureBits uint64

	// ActualToolchainHash/ActualTargetHash are the caller's own computed
	// hashes, compared against ExpectedToolchainHash/ExpectedTargetHash
	// (which EnvOptions reads from PARUS_EXPECTED_TOOLCHAIN_HASH/
	// PARUS_EXPECTED_TARGET_HASH) when those are non-empty.
	ActualToolchainHash string
	ActualTargetHash    string

	ToolchainRoot    string
	Sysroot          string
	ExpectedToolchainHash string
	ExpectedTargetHash    string
	DarwinMinVersion string
	DarwinSDKVersion string
	SDKRoot          string

	// NativeDeps are native dependency names collected by the caller
	// (e.g. from `acts for ... abi(c)` declarations) to carry through to
	// the LinkPlan unchanged.
	NativeDeps []string
}

// EnvOptions populates the environment-sourced fields of Options from the
// process environment (spec §6 "Environment variables (consumed)"):
// PARUS_TOOLCHAIN_ROOT, PARUS_SYSROOT, PARUS_EXPECTED_TOOLCHAIN_HASH,
// PARUS_EXPECTED_TARGET_HASH, PARUS_DARWIN_MIN_VERSION,
// PARUS_DARWIN_SDK_VERSION, SDKROOT.
func EnvOptions() Options {
	return Options{
		ToolchainRoot:         os.Getenv("PARUS_TOOLCHAIN_ROOT"),
		Sysroot:               os.Getenv("PARUS_SYSROOT"),
		ExpectedToolchainHash: os.Getenv("PARUS_EXPECTED_TOOLCHAIN_HASH"),
		ExpectedTargetHash:    os.Getenv("PARUS_EXPECTED_TARGET_HASH"),
		DarwinMinVersion:      os.Getenv("PARUS_DARWIN_MIN_VERSION"),
		DarwinSDKVersion:      os.Getenv("PARUS_DARWIN_SDK_VERSION"),
		SDKRoot:               os.Getenv("SDKROOT"),
	}
}

// LinkPlan is linkdriver's terminal output (SPEC_FULL §6: "a LinkPlan (temp
// path + collected native-dependency names) that an external
// LLD-compatible linker would consume").
type LinkPlan struct {
	ObjectPath string
	Lane       parlib.Lane
	NativeDeps []string

	ToolchainRoot    string
	Sysroot          string
	DarwinMinVersion string
	DarwinSDKVersion string
	SDKRoot          string
}

// Plan reads opt.ArchivePath, verifies it, selects its ObjectArchive chunk,
// and materializes a LinkPlan. On any failure it returns a nil plan and a
// bag explaining why (spec §7: "diagnostics are values").
func Plan(opt Options) (*LinkPlan, *errors.Bag) {
	bag := &errors.Bag{}

	if opt.ExpectedToolchainHash != "" && opt.ExpectedToolchainHash != opt.ActualToolchainHash {
		bag.Add(errors.New(errors.LinkToolchainHashMismatch, "link", nil,
			"toolchain hash %q does not match PARUS_EXPECTED_TOOLCHAIN_HASH %q",
			opt.ActualToolchainHash, opt.ExpectedToolchainHash))
	}
	if opt.ExpectedTargetHash != "" && opt.ExpectedTargetHash != opt.ActualTargetHash {
		bag.Add(errors.New(errors.LinkTargetHashMismatch, "link", nil,
			"target hash %q does not match PARUS_EXPECTED_TARGET_HASH %q",
			opt.ActualTargetHash, opt.ExpectedTargetHash))
	}
	if len(bag.Errors()) > 0 {
		return nil, bag
	}

	insp := parlib.Inspect(opt.ArchivePath)
	for _, m := range insp.Messages {
		if m.IsError {
			bag.Add(errors.New(errors.LinkArchiveUnreadable, "link", nil, "%s", m.Text))
		}
	}
	if !insp.OK {
		return nil, bag
	}

	if opt.ExpectedFeatureBits != 0 && insp.Header.FeatureBits&opt.ExpectedFeatureBits != opt.ExpectedFeatureBits {
		bag.Add(errors.New(errors.LinkFeatureBitsMismatch, "link", nil,
			"archive feature_bits %#x is missing required bits %#x",
			insp.Header.FeatureBits, opt.ExpectedFeatureBits))
		return nil, bag
	}

	chunk, ok := selectObjectArchive(insp.Chunks)
	if !ok {
		bag.Add(errors.New(errors.LinkNoObjectArchive, "link", nil,
			"archive %q has no ObjectArchive chunk for any lane", opt.ArchivePath))
		return nil, bag
	}

	raw, err := os.ReadFile(opt.ArchivePath)
	if err != nil {
		bag.Add(errors.New(errors.LinkArchiveUnreadable, "link", nil,
			"failed to re-read archive %q: %v", opt.ArchivePath, err))
		return nil, bag
	}
	if chunk.Offset+chunk.Size > uint64(len(raw)) {
		bag.Add(errors.New(errors.LinkArchiveUnreadable, "link", nil,
			"ObjectArchive chunk range exceeds archive size"))
		return nil, bag
	}
	payload := raw[chunk.Offset : chunk.Offset+chunk.Size]

	tmp, err := os.CreateTemp("", "parus-link-*.o")
	if err != nil {
		bag.Add(errors.New(errors.LinkArchiveUnreadable, "link", nil,
			"failed to materialize object chunk: %v", err))
		return nil, bag
	}
	defer tmp.Close()
	if _, err := tmp.Write(payload); err != nil {
		bag.Add(errors.New(errors.LinkArchiveUnreadable, "link", nil,
			"failed to write materialized object chunk: %v", err))
		return nil, bag
	}

	return &LinkPlan{
		ObjectPath:       tmp.Name(),
		Lane:             chunk.Lane,
		NativeDeps:       append([]string(nil), opt.NativeDeps...),
		ToolchainRoot:    opt.ToolchainRoot,
		Sysroot:          opt.Sysroot,
		DarwinMinVersion: opt.DarwinMinVersion,
		DarwinSDKVersion: opt.DarwinSDKVersion,
		SDKRoot:          opt.SDKRoot,
	}, bag
}

// selectObjectArchive picks the ObjectArchive chunk for the
// highest-precedence lane present (Pcore > Prt > Pstd > any), matching
// SPEC_FULL §6's selection order.
func selectObjectArchive(chunks []parlib.ChunkRecord) (parlib.ChunkRecord, bool) {
	byLane := map[parlib.Lane]parlib.ChunkRecord{}
	var first parlib.ChunkRecord
	haveFirst := false
	for _, c := range chunks {
		if c.Kind != parlib.ChunkObjectArchive {
			continue
		}
		if !haveFirst {
			first = c
			haveFirst = true
		}
		if _, seen := byLane[c.Lane]; !seen {
			byLane[c.Lane] = c
		}
	}
	for _, lane := range lanePrecedence {
		if c, ok := byLane[lane]; ok {
			return c, true
		}
	}
	return first, haveFirst
}
