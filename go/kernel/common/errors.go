package common

import "errors"

var NoHandler = errors.New("syscall table names a method the kernel does not define")
