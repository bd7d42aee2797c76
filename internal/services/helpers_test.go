// internal/services/helpers_test.go
package services

import (
	"github.com/talkmate/talkmate/internal/utils"
)

func testLogger() *utils.Logger {
	return utils.GetLogger().WithComponent("test")
}
