package pkg

import (
	"github.com/provide-io/magicpatch/pkg/logging"
	"github.com/provide-io/magicpatch/pkg/magic"
)

// PatchFile validates the arguments, patches the file and returns its new
// path. Logging follows MAGICPATCH_LOG_LEVEL and MAGICPATCH_JSON_LOG.
func PatchFile(filePath, typeTag, targetSizeKB, hashAlgorithm, encoding string) (string, error) {
	logger := logging.NewLoggerFromEnv("magicpatch")

	req, err := magic.ParseRequest(filePath, typeTag, targetSizeKB, hashAlgorithm, encoding)
	if err != nil {
		logger.Error("❌ Invalid request", "error", err)
		return "", err
	}

	res, err := magic.NewPatcher(logger).Patch(req)
	if err != nil {
		return "", err
	}
	return res.NewPath, nil
}
