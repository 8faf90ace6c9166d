package disk

import (
	"fmt"

	. "github.com/weberc2/fatfs/pkg/types"
)

// Memory keeps images in process memory, keyed by name. Images survive
// `Close` so a volume can be unmounted and mounted again.
type Memory struct {
	images map[string][]byte
	open   []byte
	name   string
}

func NewMemory() *Memory {
	return &Memory{images: map[string][]byte{}}
}

func (m *Memory) Create(name string, blocks Block) error {
	if _, exists := m.images[name]; exists {
		return fmt.Errorf("creating image `%s`: %w", name, ImageExistsErr)
	}
	m.images[name] = make([]byte, Byte(blocks)*BlockSize)
	return nil
}

// Image returns the raw bytes of the image called `name`. The slice aliases
// the device's storage.
func (m *Memory) Image(name string) ([]byte, bool) {
	data, found := m.images[name]
	return data, found
}

// Put installs `data` as the image called `name`, replacing any existing one.
func (m *Memory) Put(name string, data []byte) error {
	if Byte(len(data))%BlockSize != 0 ||
		Byte(len(data))/BlockSize > Byte(maxBlocks) {
		return fmt.Errorf("putting image `%s`: %w", name, BadImageSizeErr)
	}
	m.images[name] = data
	return nil
}

func (m *Memory) Open(name string) error {
	if m.open != nil {
		return fmt.Errorf("opening image `%s`: %w", name, AlreadyOpenErr)
	}
	data, found := m.images[name]
	if !found {
		return fmt.Errorf("opening image `%s`: %w", name, NoSuchImageErr)
	}
	m.open, m.name = data, name
	return nil
}

func (m *Memory) Close() error {
	if m.open == nil {
		return fmt.Errorf("closing image: %w", NotOpenErr)
	}
	m.open, m.name = nil, ""
	return nil
}

func (m *Memory) Count() Block { return Block(Byte(len(m.open)) / BlockSize) }

func (m *Memory) ReadBlock(b Block, p *[BlockSize]byte) error {
	data, err := m.block(b)
	if err != nil {
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	copy(p[:], data)
	return nil
}

func (m *Memory) WriteBlock(b Block, p *[BlockSize]byte) error {
	data, err := m.block(b)
	if err != nil {
		return fmt.Errorf("writing block `%d`: %w", b, err)
	}
	copy(data, p[:])
	return nil
}

func (m *Memory) block(b Block) ([]byte, error) {
	if m.open == nil {
		return nil, NotOpenErr
	}
	if b >= m.Count() {
		return nil, fmt.Errorf(
			"image `%s` has `%d` blocks: %w",
			m.name,
			m.Count(),
			OutOfRangeErr,
		)
	}
	start := Byte(b) * BlockSize
	return m.open[start : start+BlockSize], nil
}
