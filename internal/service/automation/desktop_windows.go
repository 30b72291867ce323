//go:build windows

package automation

import (
	"errors"
	"path/filepath"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"github.com/micmonay/keybd_event"
)

// Обёртки для функций, которых нет в lxn/win
var (
	user32                        = syscall.NewLazyDLL("user32.dll")
	kernel32                      = syscall.NewLazyDLL("kernel32.dll")
	procGetGUIThreadInfo          = user32.NewProc("GetGUIThreadInfo")
	procQueryFullProcessImageName = kernel32.NewProc("QueryFullProcessImageNameW")
)

const processQueryLimitedInformation = 0x1000

type guiThreadInfo struct {
	CbSize        uint32
	Flags         uint32
	HwndActive    win.HWND
	HwndFocus     win.HWND
	HwndCapture   win.HWND
	HwndMenuOwner win.HWND
	HwndMoveSize  win.HWND
	HwndCaret     win.HWND
	RcCaret       win.RECT
}

func initDelay() time.Duration { return 0 }

func setPrimaryModifier(kb *keybd_event.KeyBonding, on bool) { kb.HasCTRL(on) }

// menuCopy отправляет WM_COPY элементу с фокусом ввода активного окна.
func (d *Desktop) menuCopy() error {
	fg := win.GetForegroundWindow()
	if fg == 0 {
		return errors.New("no foreground window")
	}
	tid := win.GetWindowThreadProcessId(fg, nil)

	var info guiThreadInfo
	info.CbSize = uint32(unsafe.Sizeof(info))
	target := fg
	if r, _, _ := procGetGUIThreadInfo.Call(uintptr(tid), uintptr(unsafe.Pointer(&info))); r != 0 && info.HwndFocus != 0 {
		target = info.HwndFocus
	}
	win.SendMessage(target, win.WM_COPY, 0, 0)
	return nil
}

// ForegroundApp возвращает имя исполняемого файла активного окна.
func (d *Desktop) ForegroundApp() (string, error) {
	fg := win.GetForegroundWindow()
	if fg == 0 {
		return "", errors.New("no foreground window")
	}
	var pid uint32
	win.GetWindowThreadProcessId(fg, &pid)

	h, err := syscall.OpenProcess(processQueryLimitedInformation, false, pid)
	if err != nil {
		return "", err
	}
	defer syscall.CloseHandle(h)

	buf := make([]uint16, syscall.MAX_PATH)
	size := uint32(len(buf))
	r, _, callErr := procQueryFullProcessImageName.Call(uintptr(h), 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if r == 0 {
		return "", callErr
	}
	return filepath.Base(syscall.UTF16ToString(buf[:size])), nil
}
