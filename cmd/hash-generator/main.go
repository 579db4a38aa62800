// Command hash-generator prints bcrypt hashes for seeding users directly in
// the database. Passwords must satisfy the same rules as registration.
//
//	hash-generator [-cost 12] password...
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("hash-generator", flag.ContinueOnError)
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost (4-31)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: hash-generator [-cost N] password...")
	}

	hasher := auth.NewBcryptHasher(*cost)
	for _, password := range fs.Args() {
		if err := domain.ValidatePassword(password); err != nil {
			return fmt.Errorf("%q: %w", password, err)
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash %q: %w", password, err)
		}
		fmt.Fprintf(out, "Password: %s\nHash: %s\n\n", password, hash)
	}
	return nil
}
