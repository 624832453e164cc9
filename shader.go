package framevk

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/naga"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type ShaderStage int

const (
	ShaderVertex ShaderStage = iota
	ShaderFragment
	ShaderCompute
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderVertex:
		return "vertex"
	case ShaderFragment:
		return "fragment"
	case ShaderCompute:
		return "compute"
	}
	return "unknown"
}

func (s ShaderStage) Flags() vk.ShaderStageFlagBits {
	switch s {
	case ShaderVertex:
		return vk.ShaderStageVertexBit
	case ShaderFragment:
		return vk.ShaderStageFragmentBit
	case ShaderCompute:
		return vk.ShaderStageComputeBit
	}
	return 0
}

func (s ShaderStage) valid() bool {
	return s >= ShaderVertex && s <= ShaderCompute
}

//Entry points of a WGSL module holding several stages
func (s ShaderStage) wgslEntry() string {
	switch s {
	case ShaderVertex:
		return "vs_main"
	case ShaderFragment:
		return "fs_main"
	}
	return "cs_main"
}

const spirvMagic = 0x07230203

// ShaderCode is SPIR-V ready for module creation.
type ShaderCode struct {
	Code  []uint32
	Entry string
	Stage ShaderStage
}

// ShaderCompiler turns a shader file into SPIR-V for one stage.
type ShaderCompiler interface {
	Compile(path string, stage ShaderStage) (ShaderCode, error)
}

// FileCompiler loads precompiled .spv files as is and compiles .wgsl
// sources with naga.
type FileCompiler struct {
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

func (c FileCompiler) Compile(path string, stage ShaderStage) (ShaderCode, error) {
	if !stage.valid() {
		return ShaderCode{}, errors.Wrapf(ErrUnknownShaderStage, "%s: stage %d", path, int(stage))
	}
	read := c.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	src, err := read(path)
	if err != nil {
		return ShaderCode{}, errors.Wrap(err, "read shader")
	}

	var spirv []byte
	entry := "main"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		spirv = src
	case ".wgsl":
		spirv, err = naga.Compile(string(src))
		if err != nil {
			return ShaderCode{}, errors.Wrapf(err, "compile %s", path)
		}
		entry = stage.wgslEntry()
	default:
		return ShaderCode{}, errors.Wrap(ErrUnsupportedShader, path)
	}

	words, err := SPIRVWords(spirv)
	if err != nil {
		return ShaderCode{}, errors.Wrap(err, path)
	}
	return ShaderCode{Code: words, Entry: entry, Stage: stage}, nil
}

// SPIRVWords reinterprets a little endian SPIR-V binary as words.
func SPIRVWords(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrUnsupportedShader, "spir-v size %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, errors.Wrapf(ErrUnsupportedShader, "bad spir-v magic %#08x", words[0])
	}
	return words, nil
}

// ShaderWatcher flags shader files as dirty when they change on
// disk. The renderer polls Dirty once per frame and rebuilds the
// pipeline, the same way it handles a resize.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	dirty   atomic.Bool
	done    chan struct{}
	log     *Logger
}

// NewShaderWatcher watches the directories holding paths, since
// editors often replace a file rather than write to it.
func NewShaderWatcher(paths []string, l *Logger) (*ShaderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create shader watcher")
	}
	sw := &ShaderWatcher{
		watcher: w,
		files:   make(map[string]bool, len(paths)),
		done:    make(chan struct{}),
		log:     orDiscard(l),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, errors.Wrapf(err, "resolve %s", p)
		}
		sw.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
		dirs[dir] = true
	}
	go sw.run()
	return sw, nil
}

func (sw *ShaderWatcher) run() {
	defer close(sw.done)
	for {
		select {
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !sw.files[name] {
				continue
			}
			sw.log.Info.Printf("shader %s changed", ev.Name)
			sw.dirty.Store(true)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.log.Warn.Printf("shader watcher: %v", err)
		}
	}
}

// Dirty reports whether a watched file changed since the last call.
func (sw *ShaderWatcher) Dirty() bool {
	return sw.dirty.Swap(false)
}

func (sw *ShaderWatcher) Close() error {
	err := sw.watcher.Close()
	<-sw.done
	return err
}
