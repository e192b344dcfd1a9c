package callback

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		key    ActionKey
		params string
	}{
		{name: "no params", key: ActionMenu, params: ""},
		{name: "single id", key: ActionSelectWallet, params: "0b8f2c5e-4a3e-4a8d-9d6b-3c1f5e2a7b90"},
		{name: "tuple", key: ActionSelectWalletOfDefiWallet, params: "65f1c0a2b3d4e5f607182930_2"},
		{name: "nested back token", key: ActionBack, params: Encode(ActionSelectDefiWallet, "65f1c0a2b3d4e5f607182930")},
		{name: "params with separator", key: ActionUpdateCard, params: "num_1|x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Encode(tt.key, tt.params)
			if !Fits(token) {
				t.Fatalf("token %q is over the budget", token)
			}
			key, params := Decode(token)
			if key != tt.key || params != tt.params {
				t.Errorf("Decode(%q) = (%q, %q), want (%q, %q)", token, key, params, tt.key, tt.params)
			}
		})
	}
}

func TestEveryKeyRoundTrips(t *testing.T) {
	for _, k := range Keys() {
		got, params := Decode(Encode(k, "p"))
		if got != k || params != "p" {
			t.Errorf("key %q decoded as (%q, %q)", k, got, params)
		}
		if strings.Contains(string(k), Separator) {
			t.Errorf("key %q contains the separator", k)
		}
	}
}

func TestDecodeFailsClosed(t *testing.T) {
	tests := []string{
		"",
		"menu",
		"unknownKey|params",
		`{"key":"menu","params":""}`,
		"|menu",
	}
	for _, token := range tests {
		key, params := Decode(token)
		if key != ActionNone || params != "" {
			t.Errorf("Decode(%q) = (%q, %q), want none", token, key, params)
		}
	}
}

func TestKeysAreUnique(t *testing.T) {
	seen := make(map[ActionKey]bool)
	for _, k := range Keys() {
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}

func TestSplitParams(t *testing.T) {
	parts, err := SplitParams(JoinParams("abc", "3"), 2)
	if err != nil {
		t.Fatalf("SplitParams: %v", err)
	}
	if parts[0] != "abc" || parts[1] != "3" {
		t.Errorf("SplitParams = %v", parts)
	}

	for _, bad := range []string{"abc", "_3", "abc_"} {
		if _, err := SplitParams(bad, 2); !errors.Is(err, ErrParams) {
			t.Errorf("SplitParams(%q) err = %v, want ErrParams", bad, err)
		}
	}
}

func TestNavBackToken(t *testing.T) {
	nav := Nav{BackFrom: ActionBack, BackTo: To(ActionSelectDefiWallet, "65f1c0a2b3d4e5f607182930")}
	if !nav.Edit() {
		t.Error("Edit() = false for a back press")
	}

	key, params := Decode(nav.BackToken())
	if key != ActionBack {
		t.Fatalf("back button key = %q", key)
	}
	target := Parse(params)
	if target != nav.BackTo {
		t.Errorf("back target = %+v, want %+v", target, nav.BackTo)
	}

	if (Nav{}).BackToken() != "" {
		t.Error("root screen got a back token")
	}
	if (Nav{}).Edit() {
		t.Error("zero Nav should send a new message")
	}
}
