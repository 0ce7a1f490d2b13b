package parlib

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

type chunkKey struct {
	kind ChunkKind
	lane Lane
}

type buildChunk struct {
	payload ChunkPayload
	record  ChunkRecord
}

type uniqueBlob struct {
	bytes       []byte
	alignment   uint32
	compression Compression
	contentHash uint64
	checksum    uint64
	offset      uint64
}

func encodeCStrTable(strs []string) []byte {
	out := make([]byte, 0, 64)
	for _, s := range strs {
		out = append(out, s...)
		out = append(out, 0)
	}
	return out
}

func defaultManifestPayload(opt BuildOptions, lanes []Lane) []byte {
	out := "format=1.0\n"
	out += "magic=PRLB\n"
	out += "feature_bits=" + strconv.FormatUint(opt.FeatureBits, 10) + "\n"
	out += "flags=" + strconv.FormatUint(uint64(opt.Flags), 10) + "\n"
	out += "target_triple=" + opt.TargetTriple + "\n"
	out += "lanes="
	for i, l := range lanes {
		if i > 0 {
			out += ","
		}
		out += LaneName(l)
	}
	out += "\n"
	return []byte(out)
}

func defaultStringTablePayload(opt BuildOptions, lanes []Lane) []byte {
	strs := []string{
		"", "pcore", "prt", "pstd",
		"Manifest", "StringTable", "SymbolIndex", "TypeMeta", "OIRArchive", "ObjectArchive", "Debug",
	}
	if opt.TargetTriple != "" {
		strs = append(strs, opt.TargetTriple)
	}
	for _, l := range lanes {
		strs = append(strs, LaneName(l))
	}
	return encodeCStrTable(strs)
}

func defaultLanePayload(kind ChunkKind, lane Lane) []byte {
	return []byte("lane=" + LaneName(lane) + "\n" + "kind=" + ChunkKindName(kind) + "\n")
}

func collectEnabledLanes(opt BuildOptions) []Lane {
	var lanes []Lane
	if opt.IncludePcore {
		lanes = append(lanes, LanePcore)
	}
	if opt.IncludePrt {
		lanes = append(lanes, LanePrt)
	}
	if opt.IncludePstd {
		lanes = append(lanes, LanePstd)
	}
	return lanes
}

var laneChunkKinds = []ChunkKind{ChunkSymbolIndex, ChunkTypeMeta, ChunkOIRArchive, ChunkObjectArchive}

func makeRequiredChunks(opt BuildOptions, lanes []Lane) map[chunkKey]ChunkPayload {
	out := map[chunkKey]ChunkPayload{}

	manifest := ChunkPayload{Kind: ChunkManifest, Lane: LaneGlobal, Alignment: 8, Compression: CompressionNone}
	manifest.Bytes = defaultManifestPayload(opt, lanes)
	out[chunkKey{manifest.Kind, manifest.Lane}] = manifest

	strings := ChunkPayload{Kind: ChunkStringTable, Lane: LaneGlobal, Alignment: 8, Compression: CompressionNone}
	strings.Bytes = defaultStringTablePayload(opt, lanes)
	out[chunkKey{strings.Kind, strings.Lane}] = strings

	for _, lane := range lanes {
		for _, kind := range laneChunkKinds {
			c := ChunkPayload{Kind: kind, Lane: lane, Alignment: 8, Compression: CompressionNone}
			c.Bytes = defaultLanePayload(kind, lane)
			out[chunkKey{c.Kind, c.Lane}] = c
		}
	}

	if opt.IncludeDebug {
		debug := ChunkPayload{Kind: ChunkDebug, Lane: LaneGlobal, Alignment: 8, Compression: CompressionNone}
		debug.Bytes = []byte("debug=enabled\n")
		out[chunkKey{debug.Kind, debug.Lane}] = debug
	}

	return out
}

// toSortedChunks stabilizes TOC order by (lane, kind) ascending (spec §6:
// "TOC order is deterministic").
func toSortedChunks(chunkMap map[chunkKey]ChunkPayload) []buildChunk {
	out := make([]buildChunk, 0, len(chunkMap))
	for _, v := range chunkMap {
		out = append(out, buildChunk{payload: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].payload, out[j].payload
		if a.Lane != b.Lane {
			return a.Lane < b.Lane
		}
		return a.Kind < b.Kind
	})
	return out
}

func prepareChunkRecords(chunks []buildChunk, msgs *[]Message) bool {
	ok := true
	for i := range chunks {
		c := &chunks[i]
		if !isPowerOfTwo(c.payload.Alignment) {
			ok = false
			pushError(msgs, "parlib: chunk alignment must be power-of-two. kind=%s, lane=%s", ChunkKindName(c.payload.Kind), LaneName(c.payload.Lane))
			continue
		}
		if c.payload.Compression != CompressionNone {
			ok = false
			pushError(msgs, "parlib: unsupported compression for v1. kind=%s, lane=%s", ChunkKindName(c.payload.Kind), LaneName(c.payload.Lane))
			continue
		}
		c.record.Kind = c.payload.Kind
		c.record.Lane = c.payload.Lane
		c.record.Alignment = c.payload.Alignment
		c.record.Compression = c.payload.Compression
		c.record.Size = uint64(len(c.payload.Bytes))
		c.record.ContentHash = contentHash(c.payload.Bytes)
		c.record.Checksum = checksum(c.payload.Bytes)
	}
	return ok
}

// dedupPayloads builds the deduplicated unique-blob set, storing each
// chunk's chosen unique index (temporarily) in its record's Offset field,
// to be replaced by the real byte offset once layout is computed (spec §6
// "content-addressed deduplication").
func dedupPayloads(chunks []buildChunk) []uniqueBlob {
	var unique []uniqueBlob
	byHash := map[uint64][]int{}

	for i := range chunks {
		c := &chunks[i]
		h := c.record.ContentHash
		chosen := -1
		for _, idx := range byHash[h] {
			u := unique[idx]
			if u.alignment != c.payload.Alignment {
				continue
			}
			if u.compression != c.payload.Compression {
				continue
			}
			if string(u.bytes) != string(c.payload.Bytes) {
				continue
			}
			chosen = idx
			break
		}

		if chosen == -1 {
			u := uniqueBlob{
				bytes: c.payload.Bytes, alignment: c.payload.Alignment,
				compression: c.payload.Compression,
				contentHash: c.record.ContentHash, checksum: c.record.Checksum,
			}
			chosen = len(unique)
			unique = append(unique, u)
			byHash[h] = append(byHash[h], chosen)
			c.record.Deduplicated = false
		} else {
			c.record.Deduplicated = true
		}

		c.record.Offset = uint64(chosen)
	}
	return unique
}

func writeHeader(image []byte, hdr HeaderInfo) {
	image[0], image[1], image[2], image[3] = magicP, magicR, magicL, magicB
	binary.LittleEndian.PutUint16(image[4:], hdr.FormatMajor)
	binary.LittleEndian.PutUint16(image[6:], hdr.FormatMinor)
	binary.LittleEndian.PutUint32(image[8:], hdr.Flags)
	binary.LittleEndian.PutUint32(image[12:], headerSizeV1)
	binary.LittleEndian.PutUint64(image[16:], hdr.TOCOffset)
	binary.LittleEndian.PutUint32(image[24:], hdr.TOCEntrySize)
	binary.LittleEndian.PutUint32(image[28:], hdr.TOCEntryCount)
	binary.LittleEndian.PutUint64(image[32:], hdr.ChunkDataOffset)
	binary.LittleEndian.PutUint64(image[40:], hdr.FileSize)
	binary.LittleEndian.PutUint64(image[48:], hdr.FeatureBits)

	const tripleOff = 56
	maxCopy := targetTripleFieldSize - 1
	n := len(hdr.TargetTriple)
	if n > maxCopy {
		n = maxCopy
	}
	copy(image[tripleOff:], hdr.TargetTriple[:n])
	image[tripleOff+n] = 0
}

func writeTOCEntry(image []byte, off int, r ChunkRecord) {
	binary.LittleEndian.PutUint16(image[off+0:], uint16(r.Kind))
	binary.LittleEndian.PutUint16(image[off+2:], uint16(r.Lane))
	binary.LittleEndian.PutUint32(image[off+4:], r.Alignment)
	binary.LittleEndian.PutUint16(image[off+8:], uint16(r.Compression))
	binary.LittleEndian.PutUint16(image[off+10:], 0)
	binary.LittleEndian.PutUint64(image[off+12:], r.Offset)
	binary.LittleEndian.PutUint64(image[off+20:], r.Size)
	binary.LittleEndian.PutUint64(image[off+28:], r.Checksum)
	binary.LittleEndian.PutUint64(image[off+36:], r.ContentHash)
	binary.LittleEndian.PutUint32(image[off+44:], 0)
}

// Build assembles a v1 parlib archive according to opt and writes it to
// opt.OutputPath (spec §6: archive build operation).
func Build(opt BuildOptions) *BuildResult {
	out := &BuildResult{OutputPath: opt.OutputPath}

	if opt.OutputPath == "" {
		pushError(&out.Messages, "parlib: output path is empty.")
		return out
	}

	lanes := collectEnabledLanes(opt)
	if len(lanes) == 0 {
		pushError(&out.Messages, "parlib: at least one lane(pcore/prt/pstd) must be enabled.")
		return out
	}

	chunkMap := makeRequiredChunks(opt, lanes)
	for _, c := range opt.ExtraChunks {
		chunkMap[chunkKey{c.Kind, c.Lane}] = c
	}

	chunks := toSortedChunks(chunkMap)
	if !prepareChunkRecords(chunks, &out.Messages) {
		out.OK = false
		return out
	}

	unique := dedupPayloads(chunks)

	hdr := HeaderInfo{
		FormatMajor: formatMajorV1, FormatMinor: formatMinorV1,
		Flags: opt.Flags, FeatureBits: opt.FeatureBits, TargetTriple: opt.TargetTriple,
	}
	if len(hdr.TargetTriple) >= targetTripleFieldSize {
		pushInfo(&out.Messages, "parlib: target triple was truncated to fit header fixed field.")
		hdr.TargetTriple = hdr.TargetTriple[:targetTripleFieldSize-1]
	}

	hdr.TOCOffset = uint64(headerSizeV1)
	hdr.TOCEntrySize = tocEntrySizeV1
	hdr.TOCEntryCount = uint32(len(chunks))
	tocBytes := uint64(hdr.TOCEntrySize) * uint64(hdr.TOCEntryCount)
	hdr.ChunkDataOffset = alignUp(hdr.TOCOffset+tocBytes, 8)

	cursor := hdr.ChunkDataOffset
	for i := range unique {
		cursor = alignUp(cursor, unique[i].alignment)
		unique[i].offset = cursor
		cursor += uint64(len(unique[i].bytes))
	}
	hdr.FileSize = cursor

	for i := range chunks {
		uid := chunks[i].record.Offset
		chunks[i].record.Offset = unique[uid].offset
		chunks[i].record.Size = uint64(len(chunks[i].payload.Bytes))
	}

	image := make([]byte, hdr.FileSize)
	writeHeader(image, hdr)

	for i, c := range chunks {
		off := int(hdr.TOCOffset) + i*int(hdr.TOCEntrySize)
		writeTOCEntry(image, off, c.record)
	}

	for _, u := range unique {
		if len(u.bytes) > 0 {
			copy(image[u.offset:], u.bytes)
		}
	}

	if parent := filepath.Dir(opt.OutputPath); parent != "" && parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			pushError(&out.Messages, "parlib: failed to create output directory: %s", parent)
			return out
		}
	}

	if err := writeFileAtomic(opt.OutputPath, image); err != nil {
		pushError(&out.Messages, "parlib: failed to write output file: %s", opt.OutputPath)
		return out
	}

	out.OK = true
	out.FileSize = hdr.FileSize
	out.Header = hdr
	out.Chunks = make([]ChunkRecord, 0, len(chunks))
	for _, c := range chunks {
		out.Chunks = append(out.Chunks, c.record)
	}
	pushInfo(&out.Messages, "parlib: wrote %d bytes to %s", out.FileSize, opt.OutputPath)
	return out
}

// writeFileAtomic writes to a temp file in the target directory then
// renames it into place, so a crashed or killed build never leaves a
// half-written archive at opt.OutputPath.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".parlib-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
