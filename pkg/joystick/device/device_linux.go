//go:build linux
// +build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"
)

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13

	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
	evINIT uint8 = 0x80

	eventSize = 8
)

type joystick struct {
	file    *os.File
	index   int
	name    string
	axes    uint8
	buttons uint8
}

// Open opens /dev/input/js<index>.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	js := &joystick{file: f, index: index}
	var name [128]byte
	for _, q := range []struct {
		req uint
		ptr unsafe.Pointer
	}{
		{iocGAXES, unsafe.Pointer(&js.axes)},
		{iocGBUTTONS, unsafe.Pointer(&js.buttons)},
		{iocGNAME, unsafe.Pointer(&name)},
	} {
		if errno := js.ioctl(q.req, q.ptr); errno != 0 {
			f.Close()
			return nil, fmt.Errorf("js%d: %v", index, errno)
		}
	}
	if n := bytes.IndexByte(name[:], 0); n >= 0 {
		js.name = string(name[:n])
	} else {
		js.name = string(name[:])
	}
	return js, nil
}

// DetectAndOpen opens the first device found from startIndex, it returns
// nil without error when there is none.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		js, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return js, err
	}
	return nil, nil
}

func (js *joystick) Close() error     { return js.file.Close() }
func (js *joystick) Index() int       { return js.index }
func (js *joystick) Name() string     { return js.name }
func (js *joystick) AxisCount() int   { return int(js.axes) }
func (js *joystick) ButtonCount() int { return int(js.buttons) }

// ReadEvent decodes one struct js_event.
func (js *joystick) ReadEvent() (Event, error) {
	var buf [eventSize]byte
	if _, err := io.ReadFull(js.file, buf[:]); err != nil {
		return nil, err
	}
	ev := rawEvent{
		value:  int16(binary.LittleEndian.Uint16(buf[4:6])),
		typ:    buf[6],
		number: buf[7],
	}
	switch ev.typ &^ evINIT {
	case evBTN:
		return buttonEvent{ev}, nil
	case evAXIS:
		return axisEvent{ev}, nil
	}
	return nil, nil
}

func (js *joystick) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, js.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}

type rawEvent struct {
	value  int16
	typ    uint8
	number uint8
}

func (e rawEvent) IsInit() bool { return e.typ&evINIT != 0 }
func (e rawEvent) Index() int   { return int(e.number) }

type axisEvent struct{ rawEvent }

func (e axisEvent) Value() int { return int(e.value) }

type buttonEvent struct{ rawEvent }

func (e buttonEvent) Pressed() bool { return e.value != 0 }
