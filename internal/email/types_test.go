package email

import "testing"

func TestAddressString(t *testing.T) {
	tests := []struct {
		addr Address
		want string
	}{
		{Address{Email: "a@x.com"}, "a@x.com"},
		{Address{Name: "Bob", Email: "b@x.com"}, "Bob <b@x.com>"},
		{Address{Name: "Alice Example", Email: "a@x.com"}, "Alice Example <a@x.com>"},
		{Address{Name: "Doe, Jane", Email: "jane@x.com"}, `"Doe, Jane" <jane@x.com>`},
		{Address{Name: `Say "hi"`, Email: "h@x.com"}, `"Say \"hi\"" <h@x.com>`},
		{Address{Name: `back\slash`, Email: "s@x.com"}, `"back\\slash" <s@x.com>`},
	}

	for _, tt := range tests {
		if got := tt.addr.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestJoinAddressesKeepsCommasInNames(t *testing.T) {
	got := JoinAddresses([]Address{{Name: "Smith, Bob", Email: "bob@x.com"}, {Email: "carol@x.com"}})
	if want := `"Smith, Bob" <bob@x.com>, carol@x.com`; got != want {
		t.Errorf("JoinAddresses = %q, want %q", got, want)
	}
}
