package commands

const (
	_etc = "/usr/local/etc/com.github.goopy"
	_var = "/usr/local/var/com.github.goopy"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/sheets/.google/credentials.json"
)
