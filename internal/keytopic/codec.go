// Package keytopic maps binary record-store keys onto UTF-8 pubsub topic
// names and back. Topics have the form "/record/<base64url(key)>".
package keytopic

import (
	"regexp"
	"strings"

	"github.com/multiformats/go-multibase"
)

// Namespace prefixes every record topic. Changing it breaks interop with
// peers that subscribe by key.
const Namespace = "/record/"

// TopicPattern matches every topic KeyToTopic can produce.
var TopicPattern = regexp.MustCompile(`^/record/[A-Za-z0-9_-]*$`)

// EncodeBase32 encodes buf as lowercase, unpadded RFC 4648 base32.
func EncodeBase32(buf []byte) string {
	return encode(multibase.Base32, buf)
}

// KeyToTopic converts a binary record key to a pubsub topic.
func KeyToTopic(key []byte) string {
	return Namespace + encode(multibase.Base64url, key)
}

// TextKeyToTopic converts a key given as text. The UTF-8 bytes of key are
// used as-is.
func TextKeyToTopic(key string) string {
	return KeyToTopic([]byte(key))
}

// IsRecordTopic reports whether topic lives in the record namespace. It does
// not check the payload.
func IsRecordTopic(topic string) bool {
	return strings.HasPrefix(topic, Namespace)
}

// TopicToKey converts a pubsub topic back to the binary record key.
func TopicToKey(topic string) ([]byte, error) {
	if !IsRecordTopic(topic) {
		return nil, &TopicError{Code: CodeInvalidNamespace, Topic: topic}
	}
	_, key, err := multibase.Decode(string(multibase.Base64url) + topic[len(Namespace):])
	if err != nil {
		return nil, &TopicError{Code: CodeInvalidPayload, Topic: topic, Err: err}
	}
	// The decoder skips newlines and ignores trailing bits, so only the one
	// spelling KeyToTopic produces is accepted.
	if !TopicPattern.MatchString(topic) || KeyToTopic(key) != topic {
		return nil, &TopicError{Code: CodeInvalidPayload, Topic: topic}
	}
	return key, nil
}

// encode drops the multibase prefix character. Encode only fails for
// encodings multibase does not know.
func encode(base multibase.Encoding, buf []byte) string {
	s, err := multibase.Encode(base, buf)
	if err != nil {
		panic(err)
	}
	return s[1:]
}
