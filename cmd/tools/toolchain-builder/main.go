package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"

	"github.com/namsral/flag"

	"cpp-scratchpad/internal/docker"
	"cpp-scratchpad/internal/sandbox"
)

var ENDCOLOR = "\033[0m"
var RED = "\033[31m"
var GREEN = "\033[32m"

func main() {
	if runtime.GOOS == "windows" {
		RED = ""
		ENDCOLOR = ""
		GREEN = ""
	}

	var (
		image      string
		dockerfile string
		verbose    bool
	)

	flag.StringVar(&image, "image", sandbox.DefaultToolchainImage, "tag of the built toolchain image")
	flag.StringVar(&dockerfile, "dockerfile", "./build/dockerfiles/toolchain.dockerfile", "")
	flag.BoolVar(&verbose, "v", false, "")

	flag.Parse()

	if !docker.IsGvisorInstalled() {
		fmt.Printf("%sgVisor is not installed:%s the sandbox will use the default docker runtime\n", RED, ENDCOLOR)
	}

	fmt.Printf("%sBuilding toolchain:%s %s%s%s\n", RED, ENDCOLOR, GREEN, image, ENDCOLOR)

	cmd := exec.Command("docker", "build", "-f", dockerfile, "-t", image)

	cmd.Stdout = nil
	cmd.Stderr = os.Stderr

	if verbose {
		cmd.Args = append(cmd.Args, "--progress=plain")
		cmd.Stdout = os.Stdout
	}

	cmd.Args = append(cmd.Args, ".")

	if err := cmd.Run(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%sFinished toolchain:%s %s%s%s\n", RED, ENDCOLOR, GREEN, image, ENDCOLOR)
}
