package linkdriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parusbuild/parusc/internal/parlib"
)

func buildArchive(t *testing.T, opts parlib.BuildOptions) string {
	t.Helper()
	dir := t.TempDir()
	opts.OutputPath = filepath.Join(dir, "out.parlib")
	res := parlib.Build(opts)
	require.True(t, res.OK, "%+v", res.Messages)
	return opts.OutputPath
}

func TestPlanMaterializesObjectArchiveForPcoreLane(t *testing.T) {
	path := buildArchive(t, parlib.BuildOptions{IncludePcore: true, FeatureBits: 0x3})

	plan, bag := Plan(Options{ArchivePath: path})
	require.Empty(t, bag.Errors())
	require.NotNil(t, plan)
	require.Equal(t, parlib.LanePcore, plan.Lane)

	body, err := os.ReadFile(plan.ObjectPath)
	require.NoError(t, err)
	require.NotEmpty(t, body)
}

func TestPlanRejectsMissingFeatureBits(t *testing.T) {
	path := buildArchive(t, parlib.BuildOptions{IncludePcore: true, FeatureBits: 0x1})

	plan, bag := Plan(Options{ArchivePath: path, ExpectedFeatureBits: 0x2})
	require.Nil(t, plan)
	require.NotEmpty(t, bag.Errors())
	require.Equal(t, "LinkFeatureBitsMismatch", string(bag.Errors()[0].Code))
}

func TestPlanRejectsToolchainHashMismatch(t *testing.T) {
	path := buildArchive(t, parlib.BuildOptions{IncludePcore: true})

	plan, bag := Plan(Options{
		ArchivePath:           path,
		ExpectedToolchainHash: "deadbeef",
		ActualToolchainHash:   "cafef00d",
	})
	require.Nil(t, plan)
	require.NotEmpty(t, bag.Errors())
	require.Equal(t, "LinkToolchainHashMismatch", string(bag.Errors()[0].Code))
}

func TestPlanPassesMatchingToolchainHash(t *testing.T) {
	path := buildArchive(t, parlib.BuildOptions{IncludePcore: true})

	plan, bag := Plan(Options{
		ArchivePath:           path,
		ExpectedToolchainHash: "deadbeef",
		ActualToolchainHash:   "deadbeef",
	})
	require.Empty(t, bag.Errors())
	require.NotNil(t, plan)
}

func TestPlanRejectsUnreadableArchive(t *testing.T) {
	plan, bag := Plan(Options{ArchivePath: filepath.Join(t.TempDir(), "missing.parlib")})
	require.Nil(t, plan)
	require.NotEmpty(t, bag.Errors())
}

// TestSelectObjectArchiveLanePrecedence is SPEC_FULL §6's selection order:
// "Pcore > Prt > Pstd > any".
func TestSelectObjectArchiveLanePrecedence(t *testing.T) {
	chunks := []parlib.ChunkRecord{
		{Kind: parlib.ChunkObjectArchive, Lane: parlib.LanePstd, Offset: 10},
		{Kind: parlib.ChunkObjectArchive, Lane: parlib.LanePrt, Offset: 20},
		{Kind: parlib.ChunkManifest, Lane: parlib.LaneGlobal, Offset: 0},
	}
	got, ok := selectObjectArchive(chunks)
	require.True(t, ok)
	require.Equal(t, parlib.LanePrt, got.Lane)

	chunks = append(chunks, parlib.ChunkRecord{Kind: parlib.ChunkObjectArchive, Lane: parlib.LanePcore, Offset: 30})
	got, ok = selectObjectArchive(chunks)
	require.True(t, ok)
	require.Equal(t, parlib.LanePcore, got.Lane)
}

func TestSelectObjectArchiveFallsBackToAnyLane(t *testing.T) {
	chunks := []parlib.ChunkRecord{
		{Kind: parlib.ChunkObjectArchive, Lane: parlib.LaneVendorBegin, Offset: 5},
	}
	got, ok := selectObjectArchive(chunks)
	require.True(t, ok)
	require.Equal(t, parlib.LaneVendorBegin, got.Lane)
}

func TestSelectObjectArchiveReportsAbsence(t *testing.T) {
	_, ok := selectObjectArchive([]parlib.ChunkRecord{{Kind: parlib.ChunkManifest}})
	require.False(t, ok)
}

func TestEnvOptionsReadsAllDocumentedVariables(t *testing.T) {
	t.Setenv("PARUS_TOOLCHAIN_ROOT", "/opt/parus")
	t.Setenv("PARUS_SYSROOT", "/opt/parus/sysroot")
	t.Setenv("PARUS_EXPECTED_TOOLCHAIN_HASH", "abc123")
	t.Setenv("PARUS_EXPECTED_TARGET_HASH", "def456")
	t.Setenv("PARUS_DARWIN_MIN_VERSION", "11.0")
	t.Setenv("PARUS_DARWIN_SDK_VERSION", "14.0")
	t.Setenv("SDKROOT", "/Applications/Xcode.app/SDK")

	opt := EnvOptions()
	require.Equal(t, "/opt/parus", opt.ToolchainRoot)
	require.Equal(t, "/opt/parus/sysroot", opt.Sysroot)
	require.Equal(t, "abc123", opt.ExpectedToolchainHash)
	require.Equal(t, "def456", opt.ExpectedTargetHash)
	require.Equal(t, "11.0", opt.DarwinMinVersion)
	require.Equal(t, "14.0", opt.DarwinSDKVersion)
	require.Equal(t, "/Applications/Xcode.app/SDK", opt.SDKRoot)
}
