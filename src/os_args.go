package stacksh

import "os"

// osEnviron is the environment a session starts from when Config.Environ is nil
var osEnviron = os.Environ

// SetArgs exposes script arguments as $ARGV (list of strings) and $ARGC
func (s *Session) SetArgs(args []string) {
	argv := make(List, len(args))
	for i, arg := range args {
		argv[i] = Str(arg)
	}
	s.SetGlobal("ARGV", argv)
	s.SetGlobal("ARGC", Number(len(args)))
}
