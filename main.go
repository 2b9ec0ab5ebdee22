package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/illarion/jumanvault/cmd"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "add":
		runAdd(os.Args[2:])
	case "open":
		runOpen(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "ls":
		runLs(os.Args[2:])
	case "rm":
		runRm(os.Args[2:])
	case "passwd":
		runPasswd(os.Args[2:])
	case "recover":
		runRecover(os.Args[2:])
	case "backup":
		runBackup(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "keyring":
		runKeyring(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	parseFlags(fs, args)
	cmd.Init()
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	parseFlags(fs, args)

	if len(fs.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: jumanvault add <file>...")
		os.Exit(1)
	}
	cmd.Add(fs.Args())
}

func runOpen(args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	parseFlags(fs, args)

	if len(fs.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: jumanvault open <stored-name>")
		os.Exit(1)
	}
	cmd.Open(fs.Arg(0))
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	showDiff := fs.Bool("diff", false, "Show what overwriting the destination would change")
	parseFlags(fs, args)

	if len(fs.Args()) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: jumanvault export [-diff] <stored-name> <destination>")
		os.Exit(1)
	}
	cmd.Export(fs.Arg(0), fs.Arg(1), *showDiff)
}

func runLs(args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	parseFlags(fs, args)
	cmd.Ls()
}

func runRm(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	parseFlags(fs, args)

	if len(fs.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: jumanvault rm <stored-name>...")
		os.Exit(1)
	}
	cmd.Remove(fs.Args())
}

func runPasswd(args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	parseFlags(fs, args)
	cmd.Passwd()
}

func runRecover(args []string) {
	fs := flag.NewFlagSet("recover", flag.ExitOnError)
	parseFlags(fs, args)
	cmd.Recover()
}

func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	passphrase := fs.Bool("passphrase", false, "Wrap the backup under a separate passphrase instead of the master key")
	parseFlags(fs, args)
	cmd.Backup(*passphrase)
}

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	passphrase := fs.Bool("passphrase", false, "The backup was wrapped under a separate passphrase")
	target := fs.String("target", "", "Directory to restore into (default: the vault data directory)")
	parseFlags(fs, args)

	if len(fs.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: jumanvault restore [-passphrase] [-target dir] <artifact>")
		os.Exit(1)
	}

	targetDir := *target
	if targetDir == "" {
		targetDir = cmd.DataDir()
	}
	cmd.Restore(fs.Arg(0), targetDir, *passphrase)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parseFlags(fs, args)
	cmd.Status()
}

func runKeyring(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: jumanvault keyring <save|clear|status>")
		os.Exit(1)
	}
	cmd.Keyring(args[0])
}

func parseFlags(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("jumanvault - Single-user local encrypted file vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  jumanvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init      Create or open the vault data directory")
	fmt.Println("  add       Encrypt files into the vault")
	fmt.Println("  open      Decrypt a stored file to a temp file for viewing")
	fmt.Println("  export    Decrypt a stored file to a chosen destination")
	fmt.Println("  ls        List stored files")
	fmt.Println("  rm        Securely delete stored files")
	fmt.Println("  passwd    Change the vault password")
	fmt.Println("  recover   Reset the password with the recovery secret")
	fmt.Println("  backup    Create an encrypted snapshot of the whole vault")
	fmt.Println("  restore   Restore an encrypted snapshot")
	fmt.Println("  status    Show vault status")
	fmt.Println("  keyring   Manage the OS keyring password cache")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  jumanvault add tax-2025.pdf         # Encrypt and store")
	fmt.Println("  jumanvault open tax-2025            # Tolerant lookup by name")
	fmt.Println("  jumanvault export -diff notes.txt ./notes.txt")
	fmt.Println("  jumanvault backup -passphrase       # Snapshot with separate key")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  JUMAN_DATA_DIR   Vault location (default ~/Documents/JuMan)")
	fmt.Println("  JUMAN_PASSWORD   Password for non-interactive use")
	fmt.Println("  JUMAN_DEBUG      Verbose logging of best-effort cleanup steps")
}
