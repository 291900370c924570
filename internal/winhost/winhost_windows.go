//go:build windows

package winhost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/router"
)

const (
	wmDestroy = 0x0002
	wmClose   = 0x0010

	errInvalidWindowHandle windows.Errno = 1400 // ERROR_INVALID_WINDOW_HANDLE

	className = "cbviewClipboardViewer"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetClipboardViewer   = user32.NewProc("SetClipboardViewer")
	procChangeClipboardChain = user32.NewProc("ChangeClipboardChain")
	procSendMessageW         = user32.NewProc("SendMessageW")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procIsWindow             = user32.NewProc("IsWindow")
	procRegisterClassExW     = user32.NewProc("RegisterClassExW")
	procCreateWindowExW      = user32.NewProc("CreateWindowExW")
	procDestroyWindow        = user32.NewProc("DestroyWindow")
	procDefWindowProcW       = user32.NewProc("DefWindowProcW")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procTranslateMessage     = user32.NewProc("TranslateMessage")
	procDispatchMessageW     = user32.NewProc("DispatchMessageW")
	procPostQuitMessage      = user32.NewProc("PostQuitMessage")
	procSetLastError         = kernel32.NewProc("SetLastError")
)

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   windows.Handle
	icon       windows.Handle
	cursor     windows.Handle
	background windows.Handle
	menuName   *uint16
	className  *uint16
	iconSm     windows.Handle
}

type point struct {
	x, y int32
}

type msg struct {
	hwnd    windows.HWND
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

var (
	// windows.NewCallback slots are never released, so there is one for the
	// whole process.
	wndProcCallback = windows.NewCallback(dispatch)

	classOnce sync.Once
	classErr  error
	classPtr  *uint16
	instance  windows.Handle

	// hosts maps live windows to their Host for dispatch.
	hosts sync.Map
)

// Host is the native viewer-chain host. All methods that touch the chain
// run on the thread that owns the window.
type Host struct {
	hwnd windows.HWND
	obs  Observer
}

// New returns a host. Run creates its window.
func New() *Host { return &Host{} }

// Register implements chain.Registrar via SetClipboardViewer. A zero result
// is only an error when the last-error code says so: an empty chain also
// yields zero.
func (h *Host) Register(self chain.Handle) (chain.Handle, error) {
	_, _, _ = procSetLastError.Call(0)
	next, _, err := procSetClipboardViewer.Call(uintptr(self))
	if next == 0 && err != windows.ERROR_SUCCESS {
		return chain.None, fmt.Errorf("SetClipboardViewer: %w", err)
	}
	return chain.Handle(next), nil
}

// Unregister implements chain.Registrar via ChangeClipboardChain. Its return
// value only echoes how the next viewer handled the message, so it is not
// treated as an error.
func (h *Host) Unregister(self, next chain.Handle) error {
	if ok, _, _ := procIsWindow.Call(uintptr(self)); ok == 0 {
		return fmt.Errorf("ChangeClipboardChain: %s: %w", self, errInvalidWindowHandle)
	}
	_, _, _ = procChangeClipboardChain.Call(uintptr(self), uintptr(next))
	return nil
}

// Relay implements router.Relayer via SendMessageW.
func (h *Host) Relay(to chain.Handle, n router.Notification) error {
	_, _, _ = procSetLastError.Call(0)
	_, _, err := procSendMessageW.Call(uintptr(to), uintptr(n.Msg), n.WParam, n.LParam)
	if errors.Is(err, errInvalidWindowHandle) {
		return fmt.Errorf("SendMessage: %w", err)
	}
	return nil
}

// Run creates the viewer window, attaches obs and pumps messages until ctx
// is cancelled. Cancellation posts WM_CLOSE, which detaches obs before the
// window is destroyed.
func (h *Host) Run(ctx context.Context, obs Observer) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd, err := createWindow()
	if err != nil {
		return err
	}
	h.hwnd, h.obs = hwnd, obs
	hosts.Store(hwnd, h)

	if err := obs.Attach(chain.Handle(hwnd)); err != nil {
		hosts.Delete(hwnd)
		_, _, _ = procDestroyWindow.Call(uintptr(hwnd))
		return err
	}
	slog.Info("native clipboard viewer running", "hwnd", chain.Handle(hwnd))

	stop := context.AfterFunc(ctx, func() {
		_, _, _ = procPostMessageW.Call(uintptr(hwnd), wmClose, 0, 0)
	})
	defer stop()

	return pump()
}

// wndProc handles a message for h's window. ok=false defers to DefWindowProc.
func (h *Host) wndProc(m uint32, wParam, lParam uintptr) (ret uintptr, ok bool) {
	switch m {
	case wmClose:
		if err := h.obs.Detach(); err != nil {
			slog.Warn("detach on close failed", "err", err)
		}
		_, _, _ = procDestroyWindow.Call(uintptr(h.hwnd))
		return 0, true
	case wmDestroy:
		hosts.Delete(h.hwnd)
		_, _, _ = procPostQuitMessage.Call(0)
		return 0, true
	}
	if h.obs.Handle(router.Notification{Msg: m, WParam: wParam, LParam: lParam}) {
		return 0, true
	}
	return 0, false
}

func dispatch(hwnd, m, wParam, lParam uintptr) uintptr {
	if v, found := hosts.Load(windows.HWND(hwnd)); found {
		if ret, ok := v.(*Host).wndProc(uint32(m), wParam, lParam); ok {
			return ret
		}
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, m, wParam, lParam)
	return ret
}

func registerClass() error {
	classOnce.Do(func() {
		if classErr = windows.GetModuleHandleEx(0, nil, &instance); classErr != nil {
			classErr = fmt.Errorf("GetModuleHandleEx: %w", classErr)
			return
		}
		if classPtr, classErr = windows.UTF16PtrFromString(className); classErr != nil {
			return
		}
		wc := wndClassEx{
			wndProc:   wndProcCallback,
			instance:  instance,
			className: classPtr,
		}
		wc.size = uint32(unsafe.Sizeof(wc))
		if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
			classErr = fmt.Errorf("RegisterClassEx: %w", err)
		}
	})
	return classErr
}

// createWindow creates a hidden top-level window; viewer-chain messages are
// not delivered to message-only windows.
func createWindow() (windows.HWND, error) {
	if err := registerClass(); err != nil {
		return 0, err
	}
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(classPtr)),
		uintptr(unsafe.Pointer(classPtr)),
		0,
		0, 0, 0, 0,
		0, 0,
		uintptr(instance),
		0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx: %w", err)
	}
	return windows.HWND(hwnd), nil
}

func pump() error {
	var m msg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case -1:
			return fmt.Errorf("GetMessage: %w", err)
		case 0:
			return nil
		}
		_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}
