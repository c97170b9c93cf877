package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactLenientDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Contact
	}{
		{
			name: "plain",
			body: `{"id":1,"name":"Ana","phone":"1133334444"}`,
			want: Contact{ID: ptrID(1), Name: "Ana", Phone: "1133334444"},
		},
		{
			name: "numeric phone",
			body: `{"id":2,"name":"Bruno","phone":11999998888,"mobile":null}`,
			want: Contact{ID: ptrID(2), Name: "Bruno", Phone: "11999998888"},
		},
		{
			name: "string id",
			body: `{"id":"2","name":"Bruno"}`,
			want: Contact{ID: ptrID(2), Name: "Bruno"},
		},
		{
			name: "null id",
			body: `{"id":null,"name":"Draft"}`,
			want: Contact{Name: "Draft"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Contact
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContactDecodeRejects(t *testing.T) {
	for _, body := range []string{`{"id":"x"}`, `{"name":{"first":"Ana"}}`, `[1]`} {
		t.Run(body, func(t *testing.T) {
			var c Contact
			assert.Error(t, json.Unmarshal([]byte(body), &c))
		})
	}
}

func TestLooseInt(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{`3`, 3, true},
		{`"3"`, 3, true},
		{`" 12 "`, 12, true},
		{`4.0`, 4, true},
		{`null`, 0, false},
		{`"many"`, 0, false},
		{`[1]`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			n, ok := LooseInt(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func ptrID(v int64) *int64 { return &v }
