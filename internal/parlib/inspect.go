package parlib

import (
	"encoding/binary"
	"os"
)

func readU16LE(in []byte, off int) (uint16, bool) {
	if off+2 > len(in) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(in[off:]), true
}

func readU32LE(in []byte, off int) (uint32, bool) {
	if off+4 > len(in) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(in[off:]), true
}

func readU64LE(in []byte, off int) (uint64, bool) {
	if off+8 > len(in) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(in[off:]), true
}

// Inspect reads input's header and TOC and re-verifies every chunk's
// content hash and checksum against its recorded values (spec §6: "strict
// read-back verification").
func Inspect(inputPath string) *InspectResult {
	out := &InspectResult{InputPath: inputPath}
	if inputPath == "" {
		pushError(&out.Messages, "parlib inspect: input path is empty.")
		return out
	}

	bytes, err := os.ReadFile(inputPath)
	if err != nil {
		pushError(&out.Messages, "parlib inspect: failed to read input file: %s", inputPath)
		return out
	}
	if uint32(len(bytes)) < headerSizeV1 {
		pushError(&out.Messages, "parlib inspect: file is too small for v1 header.")
		return out
	}

	if !(bytes[0] == magicP && bytes[1] == magicR && bytes[2] == magicL && bytes[3] == magicB) {
		pushError(&out.Messages, "parlib inspect: invalid magic (expected PRLB).")
		return out
	}

	var hdr HeaderInfo
	major, ok1 := readU16LE(bytes, 4)
	minor, ok2 := readU16LE(bytes, 6)
	flags, ok3 := readU32LE(bytes, 8)
	tocOff, ok4 := readU64LE(bytes, 16)
	tocEntrySize, ok5 := readU32LE(bytes, 24)
	tocEntryCount, ok6 := readU32LE(bytes, 28)
	chunkDataOff, ok7 := readU64LE(bytes, 32)
	fileSize, ok8 := readU64LE(bytes, 40)
	featureBits, ok9 := readU64LE(bytes, 48)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9) {
		pushError(&out.Messages, "parlib inspect: failed to parse header fields.")
		return out
	}
	hdr.FormatMajor, hdr.FormatMinor = major, minor
	hdr.Flags = flags
	hdr.TOCOffset = tocOff
	hdr.TOCEntrySize, hdr.TOCEntryCount = tocEntrySize, tocEntryCount
	hdr.ChunkDataOffset = chunkDataOff
	hdr.FileSize = fileSize
	hdr.FeatureBits = featureBits

	tripleStart := 56
	tripleEnd := tripleStart + targetTripleFieldSize
	if tripleEnd > len(bytes) {
		pushError(&out.Messages, "parlib inspect: file is too small for v1 header.")
		return out
	}
	triple := make([]byte, 0, targetTripleFieldSize)
	for _, c := range bytes[tripleStart:tripleEnd] {
		if c == 0 {
			break
		}
		triple = append(triple, c)
	}
	hdr.TargetTriple = string(triple)
	out.Header = hdr

	ok := true
	if hdr.TOCEntrySize != tocEntrySizeV1 {
		ok = false
		pushError(&out.Messages, "parlib inspect: unsupported TOC entry size.")
	}

	tocEnd := hdr.TOCOffset + uint64(hdr.TOCEntrySize)*uint64(hdr.TOCEntryCount)
	if tocEnd > uint64(len(bytes)) {
		ok = false
		pushError(&out.Messages, "parlib inspect: TOC range exceeds file size.")
	}

	if hdr.FileSize != uint64(len(bytes)) {
		ok = false
		pushError(&out.Messages, "parlib inspect: header file_size does not match actual file size.")
	}

	out.Chunks = make([]ChunkRecord, 0, hdr.TOCEntryCount)

	if ok {
		for i := uint32(0); i < hdr.TOCEntryCount; i++ {
			off := int(hdr.TOCOffset + uint64(i)*uint64(hdr.TOCEntrySize))

			kindRaw, a1 := readU16LE(bytes, off+0)
			laneRaw, a2 := readU16LE(bytes, off+2)
			alignment, a3 := readU32LE(bytes, off+4)
			compRaw, a4 := readU16LE(bytes, off+8)
			dataOff, a5 := readU64LE(bytes, off+12)
			dataSize, a6 := readU64LE(bytes, off+20)
			chk, a7 := readU64LE(bytes, off+28)
			hash, a8 := readU64LE(bytes, off+36)
			if !(a1 && a2 && a3 && a4 && a5 && a6 && a7 && a8) {
				ok = false
				pushError(&out.Messages, "parlib inspect: failed to parse TOC entry #%d", i)
				continue
			}

			rec := ChunkRecord{
				Kind: ChunkKind(kindRaw), Lane: Lane(laneRaw),
				Alignment: alignment, Compression: Compression(compRaw),
				Offset: dataOff, Size: dataSize, Checksum: chk, ContentHash: hash,
			}

			if dataOff+dataSize > uint64(len(bytes)) {
				ok = false
				pushError(&out.Messages, "parlib inspect: chunk range out of file bounds, entry #%d", i)
				out.Chunks = append(out.Chunks, rec)
				continue
			}

			payload := bytes[dataOff : dataOff+dataSize]
			hashNow := contentHash(payload)
			checksumNow := checksum(payload)
			if hashNow != hash || checksumNow != chk {
				ok = false
				pushError(&out.Messages, "parlib inspect: checksum/hash mismatch at entry #%d (%s:%s)",
					i, ChunkKindName(rec.Kind), LaneName(rec.Lane))
			}

			out.Chunks = append(out.Chunks, rec)
		}
	}

	out.OK = ok
	if ok {
		pushInfo(&out.Messages, "parlib inspect: file is valid (%d chunks).", len(out.Chunks))
	}
	return out
}
