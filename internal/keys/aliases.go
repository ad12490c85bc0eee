package keys

import (
	"fmt"
	"sort"
)

// aliases maps every accepted lower-case spelling to its key.
// Built once at package initialization and never written afterwards.
var aliases = buildAliases()

func buildAliases() map[string]Token {
	table := map[string]Token{
		// Punctuation
		"`":            KeyGrave,
		"grave":        KeyGrave,
		"-":            KeyMinus,
		"minus":        KeyMinus,
		"=":            KeyEqual,
		"equal":        KeyEqual,
		"[":            KeyLeftBracket,
		"bracketleft":  KeyLeftBracket,
		"]":            KeyRightBracket,
		"bracketright": KeyRightBracket,
		"\\":           KeyBackslash,
		"backslash":    KeyBackslash,
		";":            KeySemicolon,
		"semicolon":    KeySemicolon,
		"'":            KeyQuote,
		"apostrophe":   KeyQuote,
		"quote":        KeyQuote,
		",":            KeyComma,
		"comma":        KeyComma,
		".":            KeyPeriod,
		"period":       KeyPeriod,
		"/":            KeySlash,
		"slash":        KeySlash,

		// Navigation
		"home":      KeyHome,
		"end":       KeyEnd,
		"up":        KeyUp,
		"down":      KeyDown,
		"left":      KeyLeft,
		"right":     KeyRight,
		"page_up":   KeyPageUp,
		"pageup":    KeyPageUp,
		"page up":   KeyPageUp,
		"prior":     KeyPageUp,
		"page_down": KeyPageDown,
		"pagedown":  KeyPageDown,
		"page down": KeyPageDown,
		"next":      KeyPageDown,

		// Editing
		"return":    KeyReturn,
		"enter":     KeyReturn,
		"tab":       KeyTab,
		"space":     KeySpace,
		"backspace": KeyBackspace,
		"delete":    KeyDelete,
		"del":       KeyDelete,
		"escape":    KeyEscape,
		"esc":       KeyEscape,
		"insert":    KeyInsert,
		"ins":       KeyInsert,

		// Modifiers; bare names resolve to the left-hand key.
		"shift_l":   KeyLeftShift,
		"shift_r":   KeyRightShift,
		"shift":     KeyLeftShift,
		"control_l": KeyLeftControl,
		"control_r": KeyRightControl,
		"ctrl_l":    KeyLeftControl,
		"ctrl_r":    KeyRightControl,
		"control":   KeyLeftControl,
		"ctrl":      KeyLeftControl,
		"alt_l":     KeyLeftAlt,
		"alt_r":     KeyRightAlt,
		"alt":       KeyLeftAlt,
		"option":    KeyLeftAlt,
		"super_l":   KeyLeftSuper,
		"super_r":   KeyRightSuper,
		"super":     KeyLeftSuper,
		"win":       KeyLeftSuper,
		"meta":      KeyLeftSuper,
		"command":   KeyLeftSuper,
		"cmd":       KeyLeftSuper,

		// Keypad
		"kp_add":      KeyKPAdd,
		"kp_subtract": KeyKPSubtract,
		"kp_multiply": KeyKPMultiply,
		"kp_divide":   KeyKPDivide,
		"kp_decimal":  KeyKPDecimal,
		"kp_equal":    KeyKPEqual,
		"num_lock":    KeyNumLock,
		"numlock":     KeyNumLock,
		"num lock":    KeyNumLock,

		"caps_lock": KeyCapsLock,
		"capslock":  KeyCapsLock,
		"caps lock": KeyCapsLock,

		// Media
		"audiomute":            KeyAudioMute,
		"xf86audiomute":        KeyAudioMute,
		"mute":                 KeyAudioMute,
		"audiolowervolume":     KeyAudioVolumeDown,
		"xf86audiolowervolume": KeyAudioVolumeDown,
		"volume_down":          KeyAudioVolumeDown,
		"volumedown":           KeyAudioVolumeDown,
		"audioraisevolume":     KeyAudioVolumeUp,
		"xf86audioraisevolume": KeyAudioVolumeUp,
		"volume_up":            KeyAudioVolumeUp,
		"volumeup":             KeyAudioVolumeUp,
		"audioplay":            KeyAudioPlay,
		"xf86audioplay":        KeyAudioPlay,
		"play":                 KeyAudioPlay,
		"audiostop":            KeyAudioStop,
		"xf86audiostop":        KeyAudioStop,
		"stop":                 KeyAudioStop,
		"audiopause":           KeyAudioPause,
		"xf86audiopause":       KeyAudioPause,
		"pause":                KeyAudioPause,
		"audionext":            KeyAudioNext,
		"xf86audionext":        KeyAudioNext,
		"next_track":           KeyAudioNext,
		"audioprev":            KeyAudioPrev,
		"xf86audioprev":        KeyAudioPrev,
		"prev_track":           KeyAudioPrev,
		"previous_track":       KeyAudioPrev,
	}

	for i := 0; i < 26; i++ {
		table[string(rune('a'+i))] = KeyA + Token(i)
	}
	for i := 0; i < 10; i++ {
		table[string(rune('0'+i))] = Key0 + Token(i)
		table[fmt.Sprintf("kp_%d", i)] = KeyKP0 + Token(i)
	}
	for i := 1; i <= 24; i++ {
		table[fmt.Sprintf("f%d", i)] = KeyF1 + Token(i-1)
	}
	return table
}

// Alias pairs an accepted spelling with the key it names.
type Alias struct {
	Name  string
	Token Token
}

// Aliases returns a sorted copy of the alias table.
func Aliases() []Alias {
	out := make([]Alias, 0, len(aliases))
	for name, tok := range aliases {
		out = append(out, Alias{Name: name, Token: tok})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Token != out[j].Token {
			return out[i].Token < out[j].Token
		}
		return out[i].Name < out[j].Name
	})
	return out
}
