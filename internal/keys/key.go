package keys

import (
	"fmt"
	"strings"
)

// Token identifies one physical key.
type Token uint8

const (
	// KeyNone is the zero value and never produced by Parse.
	KeyNone Token = iota

	// Letters
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	// Digits
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	// Punctuation
	KeyGrave
	KeyMinus
	KeyEqual
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyComma
	KeyPeriod
	KeySlash

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24

	// Navigation
	KeyHome
	KeyEnd
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown

	// Editing
	KeyReturn
	KeyTab
	KeySpace
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyInsert

	// Modifiers
	KeyLeftShift
	KeyRightShift
	KeyLeftControl
	KeyRightControl
	KeyLeftAlt
	KeyRightAlt
	KeyLeftSuper
	KeyRightSuper

	// Keypad
	KeyKP0
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKPAdd
	KeyKPSubtract
	KeyKPMultiply
	KeyKPDivide
	KeyKPDecimal
	KeyKPEqual
	KeyNumLock

	KeyCapsLock

	// Media
	KeyAudioMute
	KeyAudioVolumeDown
	KeyAudioVolumeUp
	KeyAudioPlay
	KeyAudioStop
	KeyAudioPause
	KeyAudioNext
	KeyAudioPrev

	tokenCount
)

type tokenInfo struct {
	name   string
	keysym string
}

// special holds every token outside the contiguous letter, digit,
// function key and keypad digit ranges.
var special = map[Token]tokenInfo{
	KeyGrave:        {"Grave", "grave"},
	KeyMinus:        {"Minus", "minus"},
	KeyEqual:        {"Equal", "equal"},
	KeyLeftBracket:  {"LeftBracket", "bracketleft"},
	KeyRightBracket: {"RightBracket", "bracketright"},
	KeyBackslash:    {"Backslash", "backslash"},
	KeySemicolon:    {"Semicolon", "semicolon"},
	KeyQuote:        {"Quote", "apostrophe"},
	KeyComma:        {"Comma", "comma"},
	KeyPeriod:       {"Period", "period"},
	KeySlash:        {"Slash", "slash"},

	KeyHome:     {"Home", "Home"},
	KeyEnd:      {"End", "End"},
	KeyUp:       {"Up", "Up"},
	KeyDown:     {"Down", "Down"},
	KeyLeft:     {"Left", "Left"},
	KeyRight:    {"Right", "Right"},
	KeyPageUp:   {"PageUp", "Prior"},
	KeyPageDown: {"PageDown", "Next"},

	KeyReturn:    {"Return", "Return"},
	KeyTab:       {"Tab", "Tab"},
	KeySpace:     {"Space", "space"},
	KeyBackspace: {"Backspace", "BackSpace"},
	KeyDelete:    {"Delete", "Delete"},
	KeyEscape:    {"Escape", "Escape"},
	KeyInsert:    {"Insert", "Insert"},

	KeyLeftShift:    {"LeftShift", "Shift_L"},
	KeyRightShift:   {"RightShift", "Shift_R"},
	KeyLeftControl:  {"LeftControl", "Control_L"},
	KeyRightControl: {"RightControl", "Control_R"},
	KeyLeftAlt:      {"LeftAlt", "Alt_L"},
	KeyRightAlt:     {"RightAlt", "Alt_R"},
	KeyLeftSuper:    {"LeftSuper", "Super_L"},
	KeyRightSuper:   {"RightSuper", "Super_R"},

	KeyKPAdd:      {"KPAdd", "KP_Add"},
	KeyKPSubtract: {"KPSubtract", "KP_Subtract"},
	KeyKPMultiply: {"KPMultiply", "KP_Multiply"},
	KeyKPDivide:   {"KPDivide", "KP_Divide"},
	KeyKPDecimal:  {"KPDecimal", "KP_Decimal"},
	KeyKPEqual:    {"KPEqual", "KP_Equal"},
	KeyNumLock:    {"NumLock", "Num_Lock"},
	KeyCapsLock:   {"CapsLock", "Caps_Lock"},

	KeyAudioMute:       {"AudioMute", "XF86AudioMute"},
	KeyAudioVolumeDown: {"AudioVolumeDown", "XF86AudioLowerVolume"},
	KeyAudioVolumeUp:   {"AudioVolumeUp", "XF86AudioRaiseVolume"},
	KeyAudioPlay:       {"AudioPlay", "XF86AudioPlay"},
	KeyAudioStop:       {"AudioStop", "XF86AudioStop"},
	KeyAudioPause:      {"AudioPause", "XF86AudioPause"},
	KeyAudioNext:       {"AudioNext", "XF86AudioNext"},
	KeyAudioPrev:       {"AudioPrev", "XF86AudioPrev"},
}

func (t Token) info() (tokenInfo, bool) {
	switch {
	case t >= KeyA && t <= KeyZ:
		r := string(rune('A' + (t - KeyA)))
		return tokenInfo{r, strings.ToLower(r)}, true
	case t >= Key0 && t <= Key9:
		d := string(rune('0' + (t - Key0)))
		return tokenInfo{d, d}, true
	case t >= KeyF1 && t <= KeyF24:
		f := fmt.Sprintf("F%d", int(t-KeyF1)+1)
		return tokenInfo{f, f}, true
	case t >= KeyKP0 && t <= KeyKP9:
		n := int(t - KeyKP0)
		return tokenInfo{fmt.Sprintf("KP%d", n), fmt.Sprintf("KP_%d", n)}, true
	}
	info, ok := special[t]
	return info, ok
}

// String returns the canonical name of the key, e.g. "LeftControl".
func (t Token) String() string {
	if info, ok := t.info(); ok {
		return info.name
	}
	if t == KeyNone {
		return "None"
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Keysym returns the X11 keysym name understood by input injectors such as xdotool.
func (t Token) Keysym() string {
	if info, ok := t.info(); ok {
		return info.keysym
	}
	return ""
}

// Combo is an ordered, non-empty list of keys pressed together.
// Order is exactly the order written in the expression.
type Combo []Token

// String joins the canonical names with "+".
func (c Combo) String() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.String()
	}
	return strings.Join(parts, "+")
}

// Keysyms returns the keysym of every key in combo order.
func (c Combo) Keysyms() []string {
	out := make([]string, len(c))
	for i, t := range c {
		out[i] = t.Keysym()
	}
	return out
}
