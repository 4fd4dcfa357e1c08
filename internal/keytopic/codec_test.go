package keytopic

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
)

func TestKeyTopicRoundTrip(t *testing.T) {
	t.Parallel()
	keys := [][]byte{
		{},
		{0x00},
		{0xfb, 0xff},
		[]byte("/pk/some-peer"),
	}
	for i := 0; i < 32; i++ {
		b := make([]byte, i*7+1)
		if _, err := rand.Read(b); err != nil {
			t.Fatalf("rand: %v", err)
		}
		keys = append(keys, b)
	}
	for _, key := range keys {
		topic := KeyToTopic(key)
		if !TopicPattern.MatchString(topic) {
			t.Fatalf("topic %q does not match %s", topic, TopicPattern)
		}
		got, err := TopicToKey(topic)
		if err != nil {
			t.Fatalf("decode %q: %v", topic, err)
		}
		if !bytes.Equal(got, key) {
			t.Fatalf("round trip mismatch: %x != %x", got, key)
		}
	}
}

func TestKeyToTopicURLAlphabet(t *testing.T) {
	t.Parallel()
	if got := KeyToTopic([]byte{0xfb, 0xff}); got != "/record/-_8" {
		t.Fatalf("unexpected topic: %s", got)
	}
	key := []byte{0x01, 0x02, 0xfe}
	want := Namespace + base64.RawURLEncoding.EncodeToString(key)
	if got := KeyToTopic(key); got != want {
		t.Fatalf("topic mismatch: %s != %s", got, want)
	}
}

func TestTextKeyToTopic(t *testing.T) {
	t.Parallel()
	topic := TextKeyToTopic("hello")
	if topic != "/record/aGVsbG8" {
		t.Fatalf("unexpected topic: %s", topic)
	}
	key, err := TopicToKey(topic)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(key) != "hello" {
		t.Fatalf("unexpected key: %q", key)
	}
}

func TestEncodeBase32(t *testing.T) {
	t.Parallel()
	if got := EncodeBase32(nil); got != "" {
		t.Fatalf("empty input should encode to empty string, got %q", got)
	}
	if got := EncodeBase32([]byte{}); got != "" {
		t.Fatalf("empty input should encode to empty string, got %q", got)
	}
	if got := EncodeBase32([]byte("hello")); got != "nbswy3dp" {
		t.Fatalf("unexpected base32: %s", got)
	}
	if got := EncodeBase32([]byte("f")); got != "my" {
		t.Fatalf("base32 should be unpadded, got %s", got)
	}
}

func TestTopicToKeyEmptyPayload(t *testing.T) {
	t.Parallel()
	key, err := TopicToKey("/record/")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if key == nil || len(key) != 0 {
		t.Fatalf("expected empty key, got %x", key)
	}
}

func TestTopicToKeyInvalidNamespace(t *testing.T) {
	t.Parallel()
	for _, topic := range []string{"not-a-record-topic", "", "/record", "/Record/aGVsbG8", " /record/aGVsbG8"} {
		_, err := TopicToKey(topic)
		if !errors.Is(err, ErrInvalidNamespace) {
			t.Fatalf("%q: expected ErrInvalidNamespace, got %v", topic, err)
		}
		if errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("%q: namespace error should not match ErrInvalidPayload", topic)
		}
		code, ok := CodeOf(err)
		if !ok || code != CodeInvalidNamespace {
			t.Fatalf("%q: unexpected code %v", topic, code)
		}
		if code.String() != "ERR_TOPIC_IS_NOT_FROM_RECORD_NAMESPACE" {
			t.Fatalf("unexpected code string: %s", code)
		}
	}
}

func TestTopicToKeyInvalidPayload(t *testing.T) {
	t.Parallel()
	_, err := TopicToKey("/record/not*base64!")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	code, ok := CodeOf(err)
	if !ok || code != CodeInvalidPayload {
		t.Fatalf("unexpected code %v", code)
	}
	var corrupt base64.CorruptInputError
	if !errors.As(err, &corrupt) {
		t.Fatalf("decoder error should stay reachable, got %v", err)
	}
}

func TestTopicToKeyRejectsNonCanonicalPayload(t *testing.T) {
	t.Parallel()
	for _, topic := range []string{
		"/record/aGVsbG9",
		"/record/aGVs\nbG8",
		"/record/aGVs\r\nbG8",
		"/record/aGVsbG8\n",
	} {
		key, err := TopicToKey(topic)
		if !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("%q: expected ErrInvalidPayload, got key=%q err=%v", topic, key, err)
		}
		if code, _ := CodeOf(err); code != CodeInvalidPayload {
			t.Fatalf("%q: unexpected code %v", topic, code)
		}
	}
}

func TestCodeOfForeignError(t *testing.T) {
	t.Parallel()
	if _, ok := CodeOf(errors.New("boom")); ok {
		t.Fatalf("foreign error should have no code")
	}
}
