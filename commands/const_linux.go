package commands

const (
	_etc = "/usr/local/etc/goopy"
	_var = "/usr/local/var/goopy"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/sheets/.google/credentials.json"
)
