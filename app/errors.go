package app

import "errors"

// ErrFormatError marks a blueprint or scene asset document that doesn't
// match the wire format: an unknown type name, a malformed relation
// entry, or a field value that doesn't parse against its type's
// reflection traits.
var ErrFormatError = errors.New("app: blueprint format error")

// ErrUnknownArgument marks a .Call closure whose parameter type has no
// matching Fetcher among the ones passed alongside it.
var ErrUnknownArgument = errors.New("app: system argument has no matching fetcher")

// ErrSceneImportCycle marks a scene asset whose "imports" graph resolves
// back to a scene already being loaded in the same LoadScene call.
var ErrSceneImportCycle = errors.New("app: scene import cycle")
