package parlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildRequiresAtLeastOneLane(t *testing.T) {
	res := Build(BuildOptions{OutputPath: filepath.Join(t.TempDir(), "out.parlib")})
	require.False(t, res.OK)
	require.NotEmpty(t, res.Messages)
}

func TestBuildRoundTripsThroughInspect(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mini.parlib")

	build := Build(BuildOptions{
		OutputPath:   out,
		IncludePcore: true,
		IncludePrt:   true,
		TargetTriple: "x86_64-unknown-linux-gnu",
		FeatureBits:  0x1,
	})
	require.True(t, build.OK, "%+v", build.Messages)
	require.NotEmpty(t, build.Chunks)

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Equal(t, build.FileSize, uint64(info.Size()))

	inspect := Inspect(out)
	require.True(t, inspect.OK, "%+v", inspect.Messages)
	require.Equal(t, len(build.Chunks), len(inspect.Chunks))
	require.Equal(t, build.Header.TargetTriple, inspect.Header.TargetTriple)
	require.Equal(t, build.FileSize, inspect.Header.FileSize)
}

// TestBuildDedupsIdenticalExtraChunks exercises spec §6's content-
// addressed deduplication: the pcore/prt SymbolIndex/TypeMeta/etc. chunks
// that happen to share identical bytes across lanes still differ here
// (payload text embeds the lane name) so this instead verifies dedup
// kicks in for two explicitly identical extra chunks (scenario-analogue
// of spec §8 scenario S6: "dedup across lanes").
func TestBuildDedupsIdenticalExtraChunks(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dedup.parlib")

	shared := []byte("shared-payload")
	build := Build(BuildOptions{
		OutputPath:   out,
		IncludePcore: true,
		ExtraChunks: []ChunkPayload{
			{Kind: ChunkReserved, Lane: LanePcore, Alignment: 8, Bytes: shared},
			{Kind: ChunkReserved, Lane: LanePrt, Alignment: 8, Bytes: shared},
		},
	})
	require.True(t, build.OK, "%+v", build.Messages)

	var a, b *ChunkRecord
	for i := range build.Chunks {
		c := &build.Chunks[i]
		if c.Kind == ChunkReserved && c.Lane == LanePcore {
			a = c
		}
		if c.Kind == ChunkReserved && c.Lane == LanePrt {
			b = c
		}
	}
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.Equal(t, a.Offset, b.Offset, "identical payloads must dedup to the same backing offset")
	require.True(t, b.Deduplicated || a.Deduplicated)

	inspect := Inspect(out)
	require.True(t, inspect.OK, "%+v", inspect.Messages)
}

func TestBuildRejectsNonPowerOfTwoAlignment(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.parlib")
	build := Build(BuildOptions{
		OutputPath:   out,
		IncludePcore: true,
		ExtraChunks: []ChunkPayload{
			{Kind: ChunkReserved, Lane: LanePcore, Alignment: 3, Bytes: []byte("x")},
		},
	})
	require.False(t, build.OK)
	require.NotEmpty(t, build.Messages)
}

func TestInspectRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "notaparlib.bin")
	require.NoError(t, os.WriteFile(out, []byte("not a parlib file at all"), 0o644))

	res := Inspect(out)
	require.False(t, res.OK)
	require.NotEmpty(t, res.Messages)
}

func TestInspectDetectsTamperedPayload(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tampered.parlib")
	build := Build(BuildOptions{OutputPath: out, IncludePcore: true})
	require.True(t, build.OK)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	// Flip a byte inside the chunk-data region (well past the header/TOC).
	flipAt := int(build.Header.ChunkDataOffset)
	require.Less(t, flipAt, len(raw))
	raw[flipAt] ^= 0xFF
	require.NoError(t, os.WriteFile(out, raw, 0o644))

	res := Inspect(out)
	require.False(t, res.OK)
	require.NotEmpty(t, res.Messages)
}
