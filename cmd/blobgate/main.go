// Command blobgate runs the storage gateway.
package main

import (
	"fmt"
	"os"

	// storage backends register themselves by connection string scheme
	_ "github.com/kbukum/blobgate/storage/local"
	_ "github.com/kbukum/blobgate/storage/memory"
	_ "github.com/kbukum/blobgate/storage/s3"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
