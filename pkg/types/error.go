package types

type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	InvalidImageErr     ConstError = "invalid image"
	InvalidGeometryErr  ConstError = "invalid geometry"
	DeviceErr           ConstError = "device error"
	NotMountedErr       ConstError = "no volume mounted"
	AlreadyMountedErr   ConstError = "volume already mounted"
	FilesStillOpenErr   ConstError = "files still open"
	InvalidNameErr      ConstError = "invalid file name"
	ExistsErr           ConstError = "file already exists"
	DirectoryFullErr    ConstError = "directory full"
	NoSuchFileErr       ConstError = "no such file"
	FileInUseErr        ConstError = "file in use"
	TooManyOpenErr      ConstError = "too many open files"
	BadHandleErr        ConstError = "bad file handle"
	OffsetOutOfRangeErr ConstError = "offset out of range"
	NoSpaceErr          ConstError = "no space left on volume"
)
