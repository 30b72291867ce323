//go:build windows

package hotkey

import (
	"context"
	"errors"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
)

// Обёртки для функций, которых может не быть в lxn/win
var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	kernel32                = syscall.NewLazyDLL("kernel32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL  = 13
	llkhfInjected = 0x10

	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
	vkLWin     = 0x5B
	vkRWin     = 0x5C
	vkReturn   = 0x0D
	vkSpace    = 0x20
	vkInsert   = 0x2D
	vkF1       = 0x70
)

type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type winSource struct{}

// NewSource возвращает источник событий на низкоуровневом хуке клавиатуры (WH_KEYBOARD_LL).
func NewSource() (Source, error) { return &winSource{}, nil }

func (w *winSource) Run(ctx context.Context, out chan<- Event) error {
	// хук и цикл сообщений должны жить в закреплённом системном потоке
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) >= 0 {
			k := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			// собственные синтетические нажатия (Ctrl+C/Ctrl+V) не должны влиять на автомат
			if k.flags&llkhfInjected == 0 {
				if key := translateVK(k.vkCode); key != KeyUnknown {
					down := false
					switch uint32(wParam) {
					case win.WM_KEYDOWN, win.WM_SYSKEYDOWN:
						down = true
					}
					select {
					case out <- Event{Key: key, Down: down, At: time.Now()}:
					default:
					}
				}
			}
		}
		ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})

	hook, _, err := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), callback, 0, 0)
	if hook == 0 {
		return errors.Join(errors.New("hotkey: SetWindowsHookExW failed"), err)
	}
	defer procUnhookWindowsHookEx.Call(hook)

	tid, _, _ := procGetCurrentThreadId.Call()
	go func() {
		<-ctx.Done()
		procPostThreadMessageW.Call(tid, win.WM_QUIT, 0, 0)
	}()

	msg := new(win.MSG)
	for {
		r := win.GetMessage(msg, 0, 0, 0)
		if r == 0 || r == -1 { // WM_QUIT или ошибка
			break
		}
		win.TranslateMessage(msg)
		win.DispatchMessage(msg)
	}
	return context.Cause(ctx)
}

func translateVK(vk uint32) Key {
	switch {
	case vk == vkControl || vk == vkLControl || vk == vkRControl:
		return KeyCtrl
	case vk == vkMenu || vk == vkLMenu || vk == vkRMenu:
		return KeyAlt
	case vk == vkShift || vk == vkLShift || vk == vkRShift:
		return KeyShift
	case vk == vkLWin || vk == vkRWin:
		return KeySuper
	case vk == vkReturn:
		return KeyEnter
	case vk == vkSpace:
		return KeySpace
	case vk == vkInsert:
		return KeyInsert
	case vk >= 'A' && vk <= 'Z':
		return KeyA + Key(vk-'A')
	case vk >= '0' && vk <= '9':
		return Key0 + Key(vk-'0')
	case vk >= vkF1 && vk < vkF1+12:
		return KeyF1 + Key(vk-vkF1)
	}
	return KeyUnknown
}
