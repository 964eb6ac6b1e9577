package openvote

import (
	"github.com/privacybydesign/openvote/group"
	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.StandardLogger()
	group.Logger = Logger
}
