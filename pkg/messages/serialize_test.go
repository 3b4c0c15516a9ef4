package messages

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSerializeDeserializeEnvelope(t *testing.T) {
	type args struct {
		envelope *Envelope
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{
			name: "Match update",
			args: args{
				envelope: &Envelope{
					Type:    MessageTypeServerMatchUpdate,
					MatchID: "match-1",
					Version: 7,
					Payload: json.RawMessage(`{"action":"PASS","actors":["bob"],"state":null,"version":7}`),
				},
			},
			wantErr: false,
		},
		{
			name: "Ping without payload",
			args: args{
				envelope: &Envelope{
					Type: MessageTypeClientPing,
				},
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SerializeEnvelope(tt.args.envelope)
			if (err != nil) != tt.wantErr {
				t.Errorf("SerializeEnvelope() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			got, err := DeserializeEnvelope(b)
			if (err != nil) != tt.wantErr {
				t.Errorf("DeserializeEnvelope() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !reflect.DeepEqual(got, tt.args.envelope) {
				t.Errorf("DeserializeEnvelope() = %v, want %v", got, tt.args.envelope)
			}
		})
	}
}

func TestDeserializeEnvelopeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "Empty", data: nil},
		{name: "Not compressed", data: []byte("hello world")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeserializeEnvelope(tt.data); err == nil {
				t.Errorf("DeserializeEnvelope() expected an error")
			}
		})
	}
}

func TestDeserializeEnvelopeFlatbufferTruncated(t *testing.T) {
	if _, err := DeserializeEnvelopeFlatbuffer([]byte{1, 2}); err == nil {
		t.Errorf("DeserializeEnvelopeFlatbuffer() expected an error")
	}
	if _, err := DeserializeEnvelopeFlatbuffer([]byte{0xff, 0xff, 0xff, 0x7f, 0, 0}); err == nil {
		t.Errorf("DeserializeEnvelopeFlatbuffer() expected an error for an out of range offset")
	}
}
