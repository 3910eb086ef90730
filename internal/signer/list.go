package signer

import (
	"os"

	"github.com/Manta-Network/cli/internal/chain"
	dserrors "github.com/Manta-Network/cli/internal/errors"
)

// Entry is a signer whose storage exists on disk.
type Entry struct {
	Runtime  chain.Runtime
	DataPath string
}

// List reports the signers known from cfg. Only the default location is
// tracked, and only for the runtime the signer supports.
func List(cfg Config) ([]Entry, error) {
	info, err := os.Stat(cfg.DataPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, dserrors.Wrap(dserrors.IO, "signer list", err, "unable to inspect %s", cfg.DataPath)
	}
	if info.IsDir() {
		return nil, nil
	}
	return []Entry{{Runtime: chain.Dolphin, DataPath: cfg.DataPath}}, nil
}
