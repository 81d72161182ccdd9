// Package main provides a command-line utility to summarize SuperFetch
// database files. It prints the parsed header values and record
// listings for quick inspection.
package main

import (
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/scigolib/agdb"
)

func main() {
	verbose := flag.Bool("verbose", false, "Enable debug logging of the parse")
	showFiles := flag.Bool("files", false, "List file records")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: agdbinfo [flags] <database.db>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	var opts []agdb.Option
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
		defer func() { _ = logger.Sync() }()
		opts = append(opts, agdb.WithLogger(logger))
	}

	f, err := agdb.Open(args[0], opts...)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	fmt.Printf("SuperFetch database: %s\n", args[0])
	fmt.Printf("Database type:\t\t%d\n", f.DatabaseType())
	fmt.Printf("Uncompressed size:\t%d bytes\n", f.UncompressedDataSize())
	fmt.Printf("Volumes:\t\t%d\n", f.VolumeCount())
	fmt.Printf("Files:\t\t\t%d\n", f.FileCount())
	fmt.Printf("Sources:\t\t%d\n", f.SourceCount())
	fmt.Printf("Executables:\t\t%d\n", f.ExecutableCount())
	fmt.Println()

	for i := 0; i < f.VolumeCount(); i++ {
		vol, err := f.Volume(i)
		if err != nil {
			log.Fatalf("Volume %d: %v", i, err)
		}
		device, err := vol.DevicePath()
		if err != nil {
			log.Fatalf("Volume %d path: %v", i, err)
		}
		fmt.Printf("Volume %d: %s\n", i, device)
		fmt.Printf("  Serial number:\t0x%08x\n", vol.SerialNumber())
		if ct := vol.CreationTime(); !ct.IsZero() {
			fmt.Printf("  Creation time:\t%s\n", ct.Format("2006-01-02 15:04:05.9999999 UTC"))
		}
	}

	for i := 0; i < f.ExecutableCount(); i++ {
		exe, err := f.Executable(i)
		if err != nil {
			log.Fatalf("Executable %d: %v", i, err)
		}
		name, err := exe.Name()
		if err != nil {
			log.Fatalf("Executable %d name: %v", i, err)
		}
		fmt.Printf("Executable %d: %s (hash 0x%x)\n", i, name, exe.NameHash())
	}

	if *showFiles {
		for i := 0; i < f.FileCount(); i++ {
			entry, err := f.FileEntry(i)
			if err != nil {
				log.Fatalf("File %d: %v", i, err)
			}
			path, err := entry.Path()
			if err != nil {
				log.Fatalf("File %d path: %v", i, err)
			}
			fmt.Printf("File %d: %s (hash 0x%x, %d sub-entries)\n",
				i, path, entry.NameHash(), entry.SubEntryCount())
		}
	}
}
