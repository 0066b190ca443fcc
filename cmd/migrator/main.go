package main

import (
	"flag"
	"fmt"

	"github.com/GintGld/kshana-timeline/internal/storage/sqlite"
)

func main() {
	var storagePath, migrationsPath string

	flag.StringVar(&storagePath, "storage-path", "", "path to storage")
	flag.StringVar(&migrationsPath, "migrations-path", "", "path to migrations, embedded ones when empty")
	flag.Parse()

	if storagePath == "" {
		panic("storage-path is required")
	}

	applied, err := sqlite.Migrate(storagePath, migrationsPath)
	if err != nil {
		panic(err)
	}

	if !applied {
		fmt.Println("no migrations to apply")
		return
	}

	fmt.Println("migrations applied successfully")
}
