package main

import "github.com/goplus/cellar/cmd/cellar/internal"

func main() {
	internal.Execute()
}
