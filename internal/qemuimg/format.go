package qemuimg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Format is a disk image format.
type Format string

const (
	FormatQCOW2 Format = "qcow2" // QCOW2 format
	FormatRaw   Format = "raw"   // Raw format
)

var (
	// qcow2Magic is "QFI" followed by 0xfb at offset 0 of every QCOW2 header.
	// Reference: https://www.qemu.org/docs/master/interop/qcow2.html
	qcow2Magic = []byte{0x51, 0x46, 0x49, 0xfb}

	// mbrSignature is the boot sector signature at offset 510. GPT disks carry
	// it too in their protective MBR.
	mbrSignature = []byte{0x55, 0xaa}
)

// DetectFormat detects the format of an image by reading magic bytes.
//
// Returns FormatQCOW2 when the QCOW2 magic is present, FormatRaw when the
// image carries a boot sector signature, and an error otherwise.
func DetectFormat(fs afero.Fs, path string) (Format, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return "", fmt.Errorf("file too small to be valid image (< 4 bytes): %w", err)
	}

	if bytes.Equal(magic, qcow2Magic) {
		return FormatQCOW2, nil
	}

	if _, err := f.Seek(510, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek to boot sector signature: %w", err)
	}

	sig := make([]byte, 2)
	if _, err := io.ReadFull(f, sig); err != nil {
		return "", fmt.Errorf("file too small for boot sector (< 512 bytes): %w", err)
	}

	if bytes.Equal(sig, mbrSignature) {
		return FormatRaw, nil
	}

	return "", fmt.Errorf("unsupported or invalid image: not qcow2 and missing boot sector signature")
}

// VerifyQCOW2 returns an error unless path holds a QCOW2 image.
func VerifyQCOW2(fs afero.Fs, path string) error {
	format, err := DetectFormat(fs, path)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", path, err)
	}
	if format != FormatQCOW2 {
		return fmt.Errorf("failed to verify %s: expected qcow2, found %s", path, format)
	}
	return nil
}
