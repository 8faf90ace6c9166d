package volume

import (
	"bytes"
	"errors"
	"testing"

	"github.com/weberc2/fatfs/pkg/disk"
	. "github.com/weberc2/fatfs/pkg/types"
)

func mount(t *testing.T, dataBlocks Block) (*disk.Memory, *Volume) {
	t.Helper()
	dev := disk.NewMemory()
	if err := Format(dev, "disk", dataBlocks); err != nil {
		t.Fatalf("Format(): unexpected error: %v", err)
	}
	v, err := Mount(dev, "disk")
	if err != nil {
		t.Fatalf("Mount(): unexpected error: %v", err)
	}
	return dev, v
}

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*7 + i/4096)
	}
	return p
}

func createOpen(t *testing.T, v *Volume, name string) FD {
	t.Helper()
	if err := v.Create(name); err != nil {
		t.Fatalf("Create(): unexpected error: %v", err)
	}
	fd, err := v.Open(name)
	if err != nil {
		t.Fatalf("Open(): unexpected error: %v", err)
	}
	return fd
}

func write(t *testing.T, v *Volume, fd FD, p []byte) int {
	t.Helper()
	n, err := v.Write(fd, p)
	if err != nil {
		t.Fatalf("Write(): unexpected error: %v", err)
	}
	return n
}

func seek(t *testing.T, v *Volume, fd FD, offset Byte) {
	t.Helper()
	if err := v.Seek(fd, offset); err != nil {
		t.Fatalf("Seek(): unexpected error: %v", err)
	}
}

func stat(t *testing.T, v *Volume, fd FD) Byte {
	t.Helper()
	size, err := v.Stat(fd)
	if err != nil {
		t.Fatalf("Stat(): unexpected error: %v", err)
	}
	return size
}

func TestFormatInfo(t *testing.T) {
	_, v := mount(t, MaxDataBlocks)
	info := v.Info()
	wanted := "FS Info:\n" +
		"total_blk_count=8198\n" +
		"fat_blk_count=4\n" +
		"rdir_blk=5\n" +
		"data_blk=6\n" +
		"data_blk_count=8192\n" +
		"fat_free_ratio=8191/8192\n" +
		"rdir_free_ratio=128/128\n"
	if found := info.String(); found != wanted {
		t.Fatalf("Info.String(): wanted:\n%s\nfound:\n%s", wanted, found)
	}
}

func TestFormatInvalidGeometry(t *testing.T) {
	for _, dataBlocks := range []Block{0, 1, MaxDataBlocks + 1} {
		err := Format(disk.NewMemory(), "disk", dataBlocks)
		if !errors.Is(err, InvalidGeometryErr) {
			t.Fatalf(
				"Format(%d): wanted `%v`; found `%v`",
				dataBlocks,
				InvalidGeometryErr,
				err,
			)
		}
	}
}

func TestFormatExistingImage(t *testing.T) {
	dev := disk.NewMemory()
	if err := dev.Create("disk", 3); err != nil {
		t.Fatalf("Create(): unexpected error: %v", err)
	}
	if err := Format(dev, "disk", 8); !errors.Is(err, InvalidGeometryErr) {
		t.Fatalf("Format(): wanted `%v`; found `%v`", InvalidGeometryErr, err)
	}

	// an existing image of the right size is formatted in place
	dev = disk.NewMemory()
	if err := dev.Create("disk", 5); err != nil {
		t.Fatalf("Create(): unexpected error: %v", err)
	}
	if err := Format(dev, "disk", 2); err != nil {
		t.Fatalf("Format(): unexpected error: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	_, v := mount(t, 64)
	fd := createOpen(t, v, "file")

	data := pattern(3*int(BlockSize) + 123)
	if n := write(t, v, fd, data); n != len(data) {
		t.Fatalf("Write(): wanted `%d`; found `%d`", len(data), n)
	}
	if size := stat(t, v, fd); size != Byte(len(data)) {
		t.Fatalf("Stat(): wanted `%d`; found `%d`", len(data), size)
	}
	if free := v.Info().FreeBlocks; free != 63-4 {
		t.Fatalf("Info().FreeBlocks: wanted `%d`; found `%d`", 63-4, free)
	}

	seek(t, v, fd, 0)
	found := make([]byte, len(data)+100)
	n, err := v.Read(fd, found)
	if err != nil {
		t.Fatalf("Read(): unexpected error: %v", err)
	}
	if n != len(data) {
		t.Fatalf("Read(): wanted `%d`; found `%d`", len(data), n)
	}
	if !bytes.Equal(data, found[:n]) {
		t.Fatal("Read(): data mismatch")
	}
}

func TestReadUnaligned(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	data := pattern(3 * int(BlockSize))
	write(t, v, fd, data)

	for _, testCase := range []struct {
		name   string
		offset Byte
		length int
	}{
		{name: "within-block", offset: 10, length: 100},
		{name: "across-boundary", offset: BlockSize - 5, length: 10},
		{name: "whole-middle-block", offset: BlockSize, length: int(BlockSize)},
		{name: "spanning-three", offset: 100, length: 2*int(BlockSize) + 50},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			seek(t, v, fd, testCase.offset)
			found := make([]byte, testCase.length)
			n, err := v.Read(fd, found)
			if err != nil {
				t.Fatalf("Read(): unexpected error: %v", err)
			}
			if n != testCase.length {
				t.Fatalf("Read(): wanted `%d`; found `%d`", testCase.length, n)
			}
			wanted := data[testCase.offset : testCase.offset+Byte(n)]
			if !bytes.Equal(wanted, found) {
				t.Fatal("Read(): data mismatch")
			}
		})
	}
}

func TestOverwrite(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	write(t, v, fd, []byte("aaaaaaaaaa"))
	seek(t, v, fd, 3)
	write(t, v, fd, []byte("bbb"))

	if size := stat(t, v, fd); size != 10 {
		t.Fatalf("Stat(): wanted `10`; found `%d`", size)
	}
	seek(t, v, fd, 0)
	found := make([]byte, 10)
	if _, err := v.Read(fd, found); err != nil {
		t.Fatalf("Read(): unexpected error: %v", err)
	}
	if string(found) != "aaabbbaaaa" {
		t.Fatalf("Read(): wanted `aaabbbaaaa`; found `%s`", found)
	}
}

func TestAppendAtBlockBoundary(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	write(t, v, fd, pattern(int(BlockSize)))
	if free := v.Info().FreeBlocks; free != 14 {
		t.Fatalf("Info().FreeBlocks: wanted `14`; found `%d`", free)
	}
	write(t, v, fd, []byte{0xee})

	if size := stat(t, v, fd); size != BlockSize+1 {
		t.Fatalf("Stat(): wanted `%d`; found `%d`", BlockSize+1, size)
	}
	if free := v.Info().FreeBlocks; free != 13 {
		t.Fatalf("Info().FreeBlocks: wanted `13`; found `%d`", free)
	}
	seek(t, v, fd, BlockSize)
	found := make([]byte, 1)
	if _, err := v.Read(fd, found); err != nil {
		t.Fatalf("Read(): unexpected error: %v", err)
	}
	if found[0] != 0xee {
		t.Fatalf("Read(): wanted `0xee`; found `%#x`", found[0])
	}
}

func TestReadAtEOF(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")

	// empty file
	if n, err := v.Read(fd, make([]byte, 10)); n != 0 || err != nil {
		t.Fatalf("Read(): wanted `0`, `nil`; found `%d`, `%v`", n, err)
	}

	write(t, v, fd, []byte("hello"))
	if n, err := v.Read(fd, make([]byte, 10)); n != 0 || err != nil {
		t.Fatalf("Read(): wanted `0`, `nil`; found `%d`, `%v`", n, err)
	}
}

func TestSeekBounds(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	write(t, v, fd, []byte("hello"))

	for _, offset := range []Byte{0, 3, 5} {
		seek(t, v, fd, offset)
	}
	for _, offset := range []Byte{-1, 6} {
		if err := v.Seek(fd, offset); !errors.Is(err, OffsetOutOfRangeErr) {
			t.Fatalf(
				"Seek(%d): wanted `%v`; found `%v`",
				offset,
				OffsetOutOfRangeErr,
				err,
			)
		}
	}
}

func TestWriteOverCapacity(t *testing.T) {
	// 4 data blocks, the first of which is reserved
	_, v := mount(t, 4)
	fd := createOpen(t, v, "file")

	n := write(t, v, fd, pattern(5*int(BlockSize)))
	if n != 3*int(BlockSize) {
		t.Fatalf("Write(): wanted `%d`; found `%d`", 3*BlockSize, n)
	}
	if size := stat(t, v, fd); size != 3*BlockSize {
		t.Fatalf("Stat(): wanted `%d`; found `%d`", 3*BlockSize, size)
	}
	if free := v.Info().FreeBlocks; free != 0 {
		t.Fatalf("Info().FreeBlocks: wanted `0`; found `%d`", free)
	}
	if n := write(t, v, fd, []byte("more")); n != 0 {
		t.Fatalf("Write(): wanted `0`; found `%d`", n)
	}

	// a second file can't get a head block at all
	other := createOpen(t, v, "other")
	if n := write(t, v, other, []byte("x")); n != 0 {
		t.Fatalf("Write(): wanted `0`; found `%d`", n)
	}
	if size := stat(t, v, other); size != 0 {
		t.Fatalf("Stat(): wanted `0`; found `%d`", size)
	}
}

func TestWritePartialLastBlock(t *testing.T) {
	_, v := mount(t, 3)
	fd := createOpen(t, v, "file")
	write(t, v, fd, pattern(100))

	n := write(t, v, fd, pattern(2*int(BlockSize)))
	if wanted := 2*int(BlockSize) - 100; n != wanted {
		t.Fatalf("Write(): wanted `%d`; found `%d`", wanted, n)
	}
	if size := stat(t, v, fd); size != 2*BlockSize {
		t.Fatalf("Stat(): wanted `%d`; found `%d`", 2*BlockSize, size)
	}
}

func TestZeroLengthWrite(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	if n := write(t, v, fd, nil); n != 0 {
		t.Fatalf("Write(): wanted `0`; found `%d`", n)
	}
	if free := v.Info().FreeBlocks; free != 15 {
		t.Fatalf("Info().FreeBlocks: wanted `15`; found `%d`", free)
	}
	if entries := v.List(); entries[0].FirstBlock != EOC {
		t.Fatalf(
			"List()[0].FirstBlock: wanted `%#x`; found `%#x`",
			EOC,
			entries[0].FirstBlock,
		)
	}
}

func TestLargeVolumeScenario(t *testing.T) {
	_, v := mount(t, MaxDataBlocks)
	fd := createOpen(t, v, "myfile")

	data := pattern(5000)
	if n := write(t, v, fd, data); n != 5000 {
		t.Fatalf("Write(): wanted `5000`; found `%d`", n)
	}
	seek(t, v, fd, 4096)
	found := make([]byte, 1000)
	n, err := v.Read(fd, found)
	if err != nil {
		t.Fatalf("Read(): unexpected error: %v", err)
	}
	if n != 904 {
		t.Fatalf("Read(): wanted `904`; found `%d`", n)
	}
	if !bytes.Equal(data[4096:], found[:n]) {
		t.Fatal("Read(): data mismatch")
	}
}

func TestTooManyOpen(t *testing.T) {
	_, v := mount(t, 16)
	if err := v.Create("file"); err != nil {
		t.Fatalf("Create(): unexpected error: %v", err)
	}
	for i := 0; i < MaxOpenFiles; i++ {
		fd, err := v.Open("file")
		if err != nil {
			t.Fatalf("Open(): unexpected error: %v", err)
		}
		if fd != FD(i) {
			t.Fatalf("Open(): wanted `%d`; found `%d`", i, fd)
		}
	}
	if _, err := v.Open("file"); !errors.Is(err, TooManyOpenErr) {
		t.Fatalf("Open(): wanted `%v`; found `%v`", TooManyOpenErr, err)
	}
	if err := v.Close(5); err != nil {
		t.Fatalf("Close(): unexpected error: %v", err)
	}
	fd, err := v.Open("file")
	if err != nil {
		t.Fatalf("Open(): unexpected error: %v", err)
	}
	if fd != 5 {
		t.Fatalf("Open(): wanted `5`; found `%d`", fd)
	}
}

func TestOpenErrors(t *testing.T) {
	_, v := mount(t, 16)
	for _, testCase := range []struct {
		name   string
		wanted error
	}{
		{name: "", wanted: InvalidNameErr},
		{name: "0123456789abcdef", wanted: InvalidNameErr},
		{name: "missing", wanted: NoSuchFileErr},
	} {
		if _, err := v.Open(testCase.name); !errors.Is(err, testCase.wanted) {
			t.Fatalf(
				"Open(%q): wanted `%v`; found `%v`",
				testCase.name,
				testCase.wanted,
				err,
			)
		}
	}
}

func TestBadHandle(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close(): unexpected error: %v", err)
	}

	for _, fd := range []FD{-1, fd, 3, MaxOpenFiles} {
		if _, err := v.Read(fd, make([]byte, 1)); !errors.Is(err, BadHandleErr) {
			t.Fatalf("Read(%d): wanted `%v`; found `%v`", fd, BadHandleErr, err)
		}
		if _, err := v.Write(fd, []byte("x")); !errors.Is(err, BadHandleErr) {
			t.Fatalf("Write(%d): wanted `%v`; found `%v`", fd, BadHandleErr, err)
		}
		if _, err := v.Stat(fd); !errors.Is(err, BadHandleErr) {
			t.Fatalf("Stat(%d): wanted `%v`; found `%v`", fd, BadHandleErr, err)
		}
		if err := v.Seek(fd, 0); !errors.Is(err, BadHandleErr) {
			t.Fatalf("Seek(%d): wanted `%v`; found `%v`", fd, BadHandleErr, err)
		}
		if err := v.Close(fd); !errors.Is(err, BadHandleErr) {
			t.Fatalf("Close(%d): wanted `%v`; found `%v`", fd, BadHandleErr, err)
		}
	}
}

func TestDelete(t *testing.T) {
	dev, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	write(t, v, fd, pattern(2*int(BlockSize)+1))
	entry := v.List()[0]

	if err := v.Delete("file"); !errors.Is(err, FileInUseErr) {
		t.Fatalf("Delete(): wanted `%v`; found `%v`", FileInUseErr, err)
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close(): unexpected error: %v", err)
	}
	if err := v.Delete("file"); err != nil {
		t.Fatalf("Delete(): unexpected error: %v", err)
	}
	if err := v.Delete("file"); !errors.Is(err, NoSuchFileErr) {
		t.Fatalf("Delete(): wanted `%v`; found `%v`", NoSuchFileErr, err)
	}

	info := v.Info()
	if info.FreeBlocks != 15 {
		t.Fatalf("Info().FreeBlocks: wanted `15`; found `%d`", info.FreeBlocks)
	}
	if info.FreeSlots != MaxFiles {
		t.Fatalf(
			"Info().FreeSlots: wanted `%d`; found `%d`",
			MaxFiles,
			info.FreeSlots,
		)
	}
	if entries := v.List(); len(entries) != 0 {
		t.Fatalf("List(): wanted `0` entries; found `%d`", len(entries))
	}

	image, _ := dev.Image("disk")
	for b := entry.FirstBlock; b < entry.FirstBlock+3; b++ {
		start := Byte(v.Superblock.DeviceBlock(b)) * BlockSize
		if !bytes.Equal(image[start:start+BlockSize], make([]byte, BlockSize)) {
			t.Fatalf("data block `%d`: wanted zeros", b)
		}
	}
}

func TestCreateErrors(t *testing.T) {
	_, v := mount(t, 16)
	if err := v.Create("file"); err != nil {
		t.Fatalf("Create(): unexpected error: %v", err)
	}
	if err := v.Create("file"); !errors.Is(err, ExistsErr) {
		t.Fatalf("Create(): wanted `%v`; found `%v`", ExistsErr, err)
	}
	if err := v.Create("a\x00b"); !errors.Is(err, InvalidNameErr) {
		t.Fatalf("Create(): wanted `%v`; found `%v`", InvalidNameErr, err)
	}
}

func TestUnmountOpenFiles(t *testing.T) {
	_, v := mount(t, 16)
	fd := createOpen(t, v, "file")
	if err := v.Unmount(); !errors.Is(err, FilesStillOpenErr) {
		t.Fatalf("Unmount(): wanted `%v`; found `%v`", FilesStillOpenErr, err)
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close(): unexpected error: %v", err)
	}
	if err := v.Unmount(); err != nil {
		t.Fatalf("Unmount(): unexpected error: %v", err)
	}
}

func TestRemount(t *testing.T) {
	dev, v := mount(t, 100)
	data := pattern(10000)
	for _, name := range []string{"a", "b", "c"} {
		fd := createOpen(t, v, name)
		write(t, v, fd, data)
		if err := v.Close(fd); err != nil {
			t.Fatalf("Close(): unexpected error: %v", err)
		}
	}
	if err := v.Delete("b"); err != nil {
		t.Fatalf("Delete(): unexpected error: %v", err)
	}
	wantedInfo := v.Info()
	if err := v.Unmount(); err != nil {
		t.Fatalf("Unmount(): unexpected error: %v", err)
	}
	image, _ := dev.Image("disk")
	before := bytes.Clone(image)

	v, err := Mount(dev, "disk")
	if err != nil {
		t.Fatalf("Mount(): unexpected error: %v", err)
	}
	if info := v.Info(); info != wantedInfo {
		t.Fatalf("Info(): wanted `%+v`; found `%+v`", wantedInfo, info)
	}
	fd, err := v.Open("c")
	if err != nil {
		t.Fatalf("Open(): unexpected error: %v", err)
	}
	found := make([]byte, len(data))
	if n, err := v.Read(fd, found); err != nil || n != len(data) {
		t.Fatalf("Read(): wanted `%d`, `nil`; found `%d`, `%v`", len(data), n, err)
	}
	if !bytes.Equal(data, found) {
		t.Fatal("Read(): data mismatch")
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close(): unexpected error: %v", err)
	}
	if err := v.Unmount(); err != nil {
		t.Fatalf("Unmount(): unexpected error: %v", err)
	}

	image, _ = dev.Image("disk")
	if !bytes.Equal(before, image) {
		t.Fatal("remount changed the image")
	}
}

func TestMountInvalid(t *testing.T) {
	formatted := func(t *testing.T) []byte {
		dev := disk.NewMemory()
		if err := Format(dev, "disk", 16); err != nil {
			t.Fatalf("Format(): unexpected error: %v", err)
		}
		image, _ := dev.Image("disk")
		return image
	}

	for _, testCase := range []struct {
		name  string
		image func(t *testing.T) []byte
	}{{
		name:  "blank",
		image: func(*testing.T) []byte { return make([]byte, 4*BlockSize) },
	}, {
		name: "bad-signature",
		image: func(t *testing.T) []byte {
			image := formatted(t)
			image[0] = 'X'
			return image
		},
	}, {
		name: "size-mismatch",
		image: func(t *testing.T) []byte {
			return append(formatted(t), make([]byte, BlockSize)...)
		},
	}, {
		name: "bad-geometry",
		image: func(t *testing.T) []byte {
			image := formatted(t)
			image[10] = 9 // directory block
			return image
		},
	}, {
		name: "fat-entry-zero-free",
		image: func(t *testing.T) []byte {
			image := formatted(t)
			image[BlockSize], image[BlockSize+1] = 0, 0
			return image
		},
	}} {
		t.Run(testCase.name, func(t *testing.T) {
			dev := disk.NewMemory()
			if err := dev.Put("disk", testCase.image(t)); err != nil {
				t.Fatalf("Put(): unexpected error: %v", err)
			}
			if _, err := Mount(dev, "disk"); !errors.Is(err, InvalidImageErr) {
				t.Fatalf("Mount(): wanted `%v`; found `%v`", InvalidImageErr, err)
			}
			if err := dev.Close(); !errors.Is(err, disk.NotOpenErr) {
				t.Fatalf("Close(): wanted `%v`; found `%v`", disk.NotOpenErr, err)
			}
		})
	}
}

func TestMountMissingImage(t *testing.T) {
	_, err := Mount(disk.NewMemory(), "missing")
	if !errors.Is(err, DeviceErr) || !errors.Is(err, disk.NoSuchImageErr) {
		t.Fatalf("Mount(): wanted `%v`; found `%v`", DeviceErr, err)
	}
}

// faultyDevice fails every write once `fail` is set.
type faultyDevice struct {
	*disk.Memory
	fail bool
}

const injectedErr ConstError = "injected"

func (d *faultyDevice) WriteBlock(b Block, p *[BlockSize]byte) error {
	if d.fail {
		return injectedErr
	}
	return d.Memory.WriteBlock(b, p)
}

func TestDeviceErrors(t *testing.T) {
	dev := faultyDevice{Memory: disk.NewMemory()}
	if err := Format(&dev, "disk", 16); err != nil {
		t.Fatalf("Format(): unexpected error: %v", err)
	}
	v, err := Mount(&dev, "disk")
	if err != nil {
		t.Fatalf("Mount(): unexpected error: %v", err)
	}
	fd := createOpen(t, v, "file")

	dev.fail = true
	n, err := v.Write(fd, []byte("hello"))
	if !errors.Is(err, DeviceErr) || !errors.Is(err, injectedErr) {
		t.Fatalf("Write(): wanted `%v`; found `%v`", DeviceErr, err)
	}
	if n != 0 {
		t.Fatalf("Write(): wanted `0`; found `%d`", n)
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close(): unexpected error: %v", err)
	}

	if err := v.Unmount(); !errors.Is(err, DeviceErr) {
		t.Fatalf("Unmount(): wanted `%v`; found `%v`", DeviceErr, err)
	}
	// the device is closed even though the flush failed
	if err := dev.Close(); !errors.Is(err, disk.NotOpenErr) {
		t.Fatalf("Close(): wanted `%v`; found `%v`", disk.NotOpenErr, err)
	}
}
