// Command hashpw prints a bcrypt hash suitable for the user_info.password column.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/meli/auth-server/internal/auth"
	"github.com/meli/auth-server/internal/config"
)

func main() {
	defaultCost := bcrypt.DefaultCost
	if cfg, err := config.Load(); err == nil {
		defaultCost = cfg.Auth.BcryptCost
	}

	cost := pflag.IntP("cost", "c", defaultCost, "bcrypt cost")
	verify := pflag.String("verify", "", "check the password read from stdin against this hash instead of hashing")
	pflag.Parse()

	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && password == "" {
		fmt.Fprintln(os.Stderr, "hashpw: read password from stdin")
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")

	if *verify != "" {
		if !auth.Matches(password, *verify, auth.BcryptMatcher{}) {
			fmt.Println("mismatch")
			os.Exit(2)
		}
		fmt.Println("match")
		return
	}

	hash, err := auth.HashPassword(password, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
