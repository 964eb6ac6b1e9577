package transport

import (
	"github.com/privacybydesign/openvote"
)

// Logger is shared with the protocol package; replacing openvote.Logger after
// initialization does not affect it.
var Logger = openvote.Logger
