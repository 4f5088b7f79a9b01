package handler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/importjs/importjs-bridge/src/bridge/internal/serverinfofile"
	"go.uber.org/config"
)

const (
	_configKeyServiceName = "service.name"

	_infoFileKeyPID     = "pid"
	_infoFileKeyService = "service"
)

// outputProcessInfo lets editor plugins identify the process behind the advertised address.
// The JSON-RPC module adds its own address field once it is listening.
func outputProcessInfo(cfg config.Provider, infofile serverinfofile.ServerInfoFile) error {
	var name string
	if err := cfg.Get(_configKeyServiceName).Populate(&name); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyServiceName, err)
	}

	if name != "" {
		if err := infofile.UpdateField(_infoFileKeyService, name); err != nil {
			return fmt.Errorf("outputting %q to info file: %w", _infoFileKeyService, err)
		}
	}
	if err := infofile.UpdateField(_infoFileKeyPID, strconv.Itoa(os.Getpid())); err != nil {
		return fmt.Errorf("outputting %q to info file: %w", _infoFileKeyPID, err)
	}
	return nil
}
