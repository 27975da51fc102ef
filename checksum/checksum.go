// Package checksum builds a metadata-invariant checksum of an audio file:
// two files with identical audio data but different tags hash the same.
package checksum

import (
	"crypto/sha1"
	"fmt"
	"hash"
	"io"

	"github.com/dhowden/tagkit/id3v2"
)

// Sum sniffs r's container and returns a checksum of its audio payload,
// skipping whatever tag envelope that container carries.
func Sum(r io.ReadSeeker) (string, error) {
	b, err := readBytes(r, 11)
	if err != nil {
		return "", err
	}
	if _, err := r.Seek(-11, io.SeekCurrent); err != nil {
		return "", fmt.Errorf("checksum: seeking back to start: %v", err)
	}

	if string(b[4:11]) == "ftypM4A" {
		return SumAtoms(r)
	}
	if string(b[0:3]) == "ID3" {
		return SumID3v2(r)
	}

	n, err := sizeBeforeID3v1(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return SumAll(r)
	}
	return sumN(r, n)
}

// SumAll hashes r until EOF.
func SumAll(r io.ReadSeeker) (string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("checksum: seeking to start: %v", err)
	}
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("checksum: hashing content: %v", err)
	}
	return sum(h), nil
}

// SumAtoms walks an MP4 atom stream to its mdat box and hashes only the
// sample data, skipping moov/udta/meta/ilst entirely.
func SumAtoms(r io.ReadSeeker) (string, error) {
	for {
		size, err := readUint32(r)
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("checksum: reached EOF before audio data")
			}
			return "", err
		}
		name, err := readString(r, 4)
		if err != nil {
			return "", err
		}

		switch name {
		case "meta":
			if _, err := r.Seek(4, io.SeekCurrent); err != nil {
				return "", err
			}
			fallthrough
		case "moov", "udta", "ilst":
			continue
		case "mdat":
			h := sha1.New()
			if _, err := io.CopyN(h, r, int64(size)-8); err != nil {
				return "", fmt.Errorf("checksum: reading audio data: %v", err)
			}
			return sum(h), nil
		default:
			if size < 8 {
				return "", fmt.Errorf("checksum: bad atom %q size %d", name, size)
			}
			if _, err := r.Seek(int64(size)-8, io.SeekCurrent); err != nil {
				return "", fmt.Errorf("checksum: skipping atom %q: %v", name, err)
			}
		}
	}
}

// SumID3v2 hashes r's content from just past a leading ID3v2 tag up to 128
// bytes before end of stream, the slot a trailing ID3v1 tag occupies. Those
// final 128 bytes are excluded whether or not they carry a "TAG" signature,
// and fewer than 128 bytes after the ID3v2 tag is an error.
func SumID3v2(r io.ReadSeeker) (string, error) {
	header, err := id3v2.ReadHeader(r)
	if err != nil {
		return "", fmt.Errorf("checksum: reading ID3v2 header: %v", err)
	}
	if _, err := r.Seek(int64(header.Size), io.SeekCurrent); err != nil {
		return "", fmt.Errorf("checksum: seeking past ID3v2 tag: %v", err)
	}

	n, err := sizeBeforeID3v1(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("checksum: file too short for ID3v1 boundary check")
	}
	return sumN(r, n)
}

// sizeBeforeID3v1 returns the number of bytes from r's current position to
// 128 bytes before EOF (the conventional ID3v1 tag size), or -1 if the
// remaining content is shorter than that.
func sizeBeforeID3v1(r io.ReadSeeker) (int64, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("checksum: reading current offset: %v", err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("checksum: reading end offset: %v", err)
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("checksum: seeking back: %v", err)
	}
	n := end - cur - 128
	if n < 0 {
		n = -1
	}
	return n, nil
}

func sumN(r io.Reader, n int64) (string, error) {
	h := sha1.New()
	if _, err := io.CopyN(h, r, n); err != nil {
		return "", fmt.Errorf("checksum: reading %d bytes: %v", n, err)
	}
	return sum(h), nil
}

func sum(h hash.Hash) string {
	return fmt.Sprintf("%x", h.Sum(nil))
}

func readBytes(r io.Reader, n uint) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("checksum: reading %d bytes: %v", n, err)
	}
	return b, nil
}

func readString(r io.Reader, n uint) (string, error) {
	b, err := readBytes(r, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readUint32(r io.Reader) (uint32, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}
