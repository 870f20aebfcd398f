package mirror

import "strings"

// Operation identifies a git subcommand the manager knows how to run
type Operation string

const (
	OpClone    Operation = "clone"
	OpFetch    Operation = "fetch"
	OpCheckout Operation = "checkout"
	OpReset    Operation = "reset"
	OpPull     Operation = "pull"
	OpRevParse Operation = "rev-parse"
	OpLsRemote Operation = "ls-remote"
	OpRemote   Operation = "remote"

	// OpInspect is not a git subcommand; it names the check that a mirror
	// path holds a working tree before any git step runs there
	OpInspect Operation = "inspect"
)

// DefaultRemote is the remote name git assigns on clone
const DefaultRemote = "origin"

// Command is a structured git invocation: the subcommand, its ordered
// arguments and the directory it runs in.
type Command struct {
	Op   Operation
	Dir  string
	Args []string
}

// Argv returns the arguments passed to the git executable
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, string(c.Op))
	return append(argv, c.Args...)
}

func (c Command) String() string {
	return "git " + strings.Join(c.Argv(), " ")
}

func cloneCommand(remoteURL, branch, dest string) Command {
	return Command{Op: OpClone, Args: []string{"--branch", branch, "--", remoteURL, dest}}
}

func fetchAllCommand(dir string) Command {
	return Command{Op: OpFetch, Dir: dir, Args: []string{"--all"}}
}

func checkoutCommand(dir, branch string) Command {
	return Command{Op: OpCheckout, Dir: dir, Args: []string{branch, "--"}}
}

func remoteURLCommand(dir, remote string) Command {
	return Command{Op: OpRemote, Dir: dir, Args: []string{"get-url", remote}}
}

func setRemoteURLCommand(dir, remote, remoteURL string) Command {
	return Command{Op: OpRemote, Dir: dir, Args: []string{"set-url", remote, remoteURL}}
}

func resetHardCommand(dir, ref string) Command {
	return Command{Op: OpReset, Dir: dir, Args: []string{"--hard", ref}}
}

func pullCommand(dir, remote, branch string) Command {
	return Command{Op: OpPull, Dir: dir, Args: []string{"--ff-only", remote, branch}}
}

func headCommand(dir string) Command {
	return Command{Op: OpRevParse, Dir: dir, Args: []string{"HEAD"}}
}

func currentBranchCommand(dir string) Command {
	return Command{Op: OpRevParse, Dir: dir, Args: []string{"--abbrev-ref", "HEAD"}}
}

// LsRemoteHeadCommand asks the remote which branch its HEAD points at
func LsRemoteHeadCommand(remoteURL string) Command {
	return Command{Op: OpLsRemote, Args: []string{"--symref", "--", remoteURL, "HEAD"}}
}

// LsRemoteBranchCommand asks the remote for the tip of one branch
func LsRemoteBranchCommand(remoteURL, branch string) Command {
	return Command{Op: OpLsRemote, Args: []string{"--", remoteURL, "refs/heads/" + branch}}
}
