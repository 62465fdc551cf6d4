package config

import (
	"errors"
	"time"
)

const (
	DefaultPort = 8881
	DefaultHost = "localhost"

	// Opaque app ids of the two upstream generation services.
	DefaultTextToImageApp = "c25dcd829d134ea98f5ae4dd311d13bc.node3.openfabric.network"
	DefaultImageTo3DApp   = "f0b5f319156c4819b9827000b17e511a.node3.openfabric.network"

	// Anonymous attribution id sent with upstream calls when none is configured.
	DefaultUserID = "super-user"

	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

var ErrHomeDirNotSet = errors.New("dreamforge home directory is not set")
