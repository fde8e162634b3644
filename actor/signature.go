package actor

import (
	"fmt"
	"reflect"
)

// Signature declares the expected shape of one message name's Args: how
// many values it carries and, optionally, the concrete type each must
// hold. A nil entry in Types (or a Types shorter than Arity) skips the
// type check for that position, for arguments whose shape is itself
// open-ended (a node result, which may be any type, or nil).
type Signature struct {
	Arity int
	Types []reflect.Type
}

// SignatureProvider is implemented by actors that want their message
// arguments validated before a handler runs. An actor with no entry for a
// given message name, or that doesn't implement SignatureProvider at all,
// receives no check for that message.
type SignatureProvider interface {
	Signatures() map[string]Signature
}

// checkSignature reports a validation error describing the first mismatch
// between args and sig, or nil if args satisfies it.
func checkSignature(name string, sig Signature, args []any) error {
	if len(args) != sig.Arity {
		return fmt.Errorf("actor: message %q expects %d argument(s), got %d", name, sig.Arity, len(args))
	}
	for i, want := range sig.Types {
		if i >= len(args) || want == nil || args[i] == nil {
			continue
		}
		got := reflect.TypeOf(args[i])
		if want.Kind() == reflect.Interface {
			if !got.Implements(want) {
				return fmt.Errorf("actor: message %q argument %d: %s does not implement %s", name, i, got, want)
			}
			continue
		}
		if got != want {
			return fmt.Errorf("actor: message %q argument %d: expected %s, got %s", name, i, want, got)
		}
	}
	return nil
}

// ErrType is the reflect.Type of the error interface, for declaring a
// Signature position that must hold an error without pinning it to one
// concrete type.
var ErrType = reflect.TypeOf((*error)(nil)).Elem()
