package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/util"
)

func TestRequest_CLI(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Text: "show interfaces", Revision: 1, Format: command.FormatJSON}, "show interfaces | json revision 1"},
		{Request{Text: "show version", Version: "latest", Format: command.FormatJSON}, "show version | json version latest"},
		{Request{Text: "show version", Format: command.FormatJSON}, "show version | json"},
		{Request{Text: "show running-config", Format: command.FormatText}, "show running-config"},
	}
	for _, tt := range tests {
		if got := tt.req.CLI(); got != tt.want {
			t.Errorf("CLI() = %q, want %q", got, tt.want)
		}
	}
}

func TestRequest_KeyMatchesIdentity(t *testing.T) {
	id := command.Identity{Text: "show interfaces", Revision: 1}
	if RequestFor(id).Key() != id.Key() {
		t.Errorf("Key() = %q, want %q", RequestFor(id).Key(), id.Key())
	}
}

func TestDecodeReply(t *testing.T) {
	jsonReq := Request{Text: "show zerotouch", Revision: 1, Format: command.FormatJSON}
	textReq := Request{Text: "show running-config diffs", Format: command.FormatText}

	v, err := decodeReply(jsonReq, []byte(`{"mode": "disabled"}`+"\n"))
	if err != nil {
		t.Fatalf("decodeReply() error = %v", err)
	}
	if v.(map[string]any)["mode"] != "disabled" {
		t.Errorf("decoded = %v", v)
	}

	v, err = decodeReply(textReq, []byte("\n"))
	if err != nil || v != "" {
		t.Errorf("decodeReply(empty text) = %q, %v", v, err)
	}

	tests := []struct {
		name string
		req  Request
		raw  string
		want error
	}{
		{"invalid input", jsonReq, "% Invalid input", util.ErrCommandFailed},
		{"revision rejected", jsonReq, "% Invalid revision 9 for this command", util.ErrUnsupportedRevision},
		{"not json", jsonReq, "Ethernet1 is up", util.ErrCommandFailed},
		{"text rejection", textReq, "% Incomplete command", util.ErrCommandFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeReply(tt.req, []byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("decodeReply() error = %v, want %v", err, tt.want)
			}
			if errors.Is(err, util.ErrDeviceUnreachable) {
				t.Error("a rejection must not be device-level")
			}
		})
	}
}

func TestDeviceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDeviceError("leaf1", cause)
	if !errors.Is(err, util.ErrDeviceUnreachable) {
		t.Error("DeviceError should match ErrDeviceUnreachable")
	}
	if !errors.Is(err, cause) {
		t.Error("DeviceError should match its cause")
	}
	if err.Error() != "device leaf1 unreachable: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

type echoTransport struct{}

func (echoTransport) Send(_ context.Context, dev *inventory.Device, req Request) (any, error) {
	return dev.Name + ":" + req.CLI(), nil
}

func TestBind(t *testing.T) {
	send := Bind(echoTransport{}, &inventory.Device{Name: "leaf1"})
	out, err := send(context.Background(), command.Identity{Text: "show version", Revision: 1, Format: command.FormatJSON})
	if err != nil {
		t.Fatal(err)
	}
	if out != "leaf1:show version | json revision 1" {
		t.Errorf("out = %v", out)
	}
}
