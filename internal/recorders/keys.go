package recorders

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"
)

var keyCodes = map[string]int{
	"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C, "d": keybd_event.VK_D,
	"e": keybd_event.VK_E, "f": keybd_event.VK_F, "g": keybd_event.VK_G, "h": keybd_event.VK_H,
	"i": keybd_event.VK_I, "j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
	"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O, "p": keybd_event.VK_P,
	"q": keybd_event.VK_Q, "r": keybd_event.VK_R, "s": keybd_event.VK_S, "t": keybd_event.VK_T,
	"u": keybd_event.VK_U, "v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
	"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,
	"0": keybd_event.VK_0, "1": keybd_event.VK_1, "2": keybd_event.VK_2, "3": keybd_event.VK_3,
	"4": keybd_event.VK_4, "5": keybd_event.VK_5, "6": keybd_event.VK_6, "7": keybd_event.VK_7,
	"8": keybd_event.VK_8, "9": keybd_event.VK_9,
	"enter": keybd_event.VK_ENTER, "return": keybd_event.VK_ENTER,
	"esc": keybd_event.VK_ESC, "escape": keybd_event.VK_ESC,
	"space": keybd_event.VK_SPACE, "tab": keybd_event.VK_TAB,
}

func knownKey(key string) bool {
	_, ok := keyCodes[key]
	return ok
}

// SystemKeys sends shortcuts as synthetic keyboard events. The key binding is
// created on first use.
type SystemKeys struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func (k *SystemKeys) init() error {
	k.once.Do(func() {
		k.kb, k.err = keybd_event.NewKeyBonding()
	})
	return k.err
}

func (k *SystemKeys) Send(s Shortcut) error {
	if err := k.init(); err != nil {
		return fmt.Errorf("init keyboard events: %w", err)
	}
	code, ok := keyCodes[s.Key]
	if !ok {
		return fmt.Errorf("unsupported key %q", s.Key)
	}
	k.kb.Clear()
	k.kb.SetKeys(code)
	k.kb.HasCTRL(s.Ctrl)
	k.kb.HasSHIFT(s.Shift)
	k.kb.HasALT(s.Alt)
	k.kb.HasSuper(s.Super)
	return k.kb.Launching()
}
