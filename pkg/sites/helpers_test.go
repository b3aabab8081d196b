package sites

import "course-migrator/pkg/logger"

func nopLogger() logger.Logger {
	return logger.NewNop()
}
