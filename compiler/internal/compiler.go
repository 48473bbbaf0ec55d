package internal

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"jackc/util"
	"jackc/vm"
)

// Option controls what the compiler produces besides vm code.
type Option struct {
	// Trace writes <Name>.xml with the parse trace next to each source.
	Trace bool
	// Tokens writes <Name>T.xml with the token stream next to each source.
	Tokens bool
	// RightFold folds binary operators to the right: a - b - c is a - (b - c).
	RightFold bool
	// LiteralCalls writes calls exactly as written, call f n and call obj.f n, and leaves out
	// the this argument of methods and the constructor and method preambles.
	LiteralCalls bool
	// Run executes the compiled program once every file compiled.
	Run bool
	// Output receives the program output of Run, os.Stdout when nil.
	Output io.Writer
}

// Compile compiles path, a single jack file or a directory of them. Each file is compiled on its
// own and its outputs are written only when it compiles. A failing file does not stop the others;
// the returned error holds every failure.
func Compile(path string, option Option) error {
	files, err := jackFiles(path)
	if err != nil {
		return err
	}
	logrus.WithField("path", path).Debugf("compiler: found %d jack files", len(files))
	var (
		compileErr error
		outputs    []string
	)
	for _, file := range files {
		output, err := compileFile(file, option)
		if err != nil {
			logrus.WithField("file", file).WithError(err).Error("compiler: compile failed")
			compileErr = multierr.Append(compileErr, err)
			continue
		}
		logrus.WithFields(logrus.Fields{"file": file, "output": output}).Info("compiler: compiled")
		outputs = append(outputs, output)
	}
	if compileErr != nil || !option.Run {
		return compileErr
	}
	return run(outputs, option.Output)
}

func jackFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		if !util.IsJackFile(path) {
			return nil, errors.Errorf("compiler: %s is not a jack file", path)
		}
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var files []string
	for _, entry := range entries {
		// Sub directories are not compiled.
		if entry.IsDir() || !util.IsJackFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	if len(files) == 0 {
		return nil, errors.Errorf("compiler: no jack files in %s", path)
	}
	sort.Strings(files)
	return files, nil
}

// compileFile compiles one source into memory first so nothing is written for a failing file.
func compileFile(file string, option Option) (string, error) {
	src, err := readSource(file)
	if err != nil {
		return "", err
	}
	var vmOut, traceOut bytes.Buffer
	var traceWriter io.Writer
	if option.Trace {
		traceWriter = &traceOut
	}
	if err = CompileSource(bytes.NewReader(src), &vmOut, traceWriter, option); err != nil {
		return "", errors.Wrapf(err, "compile %s", file)
	}
	outputs := map[string][]byte{util.SiblingPath(file, util.VMFileExtension): vmOut.Bytes()}
	if option.Trace {
		outputs[util.SiblingPath(file, ".xml")] = traceOut.Bytes()
	}
	if option.Tokens {
		var tokenOut bytes.Buffer
		if err = WriteTokens(bytes.NewReader(src), &tokenOut); err != nil {
			return "", errors.Wrapf(err, "tokenize %s", file)
		}
		outputs[util.SiblingPath(file, "T.xml")] = tokenOut.Bytes()
	}
	for output, content := range outputs {
		if err = ioutil.WriteFile(output, content, 0666); err != nil {
			return "", errors.Wrapf(err, "write %s", output)
		}
	}
	return util.SiblingPath(file, util.VMFileExtension), nil
}

func readSource(file string) ([]byte, error) {
	rd, err := os.Open(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rd.Close()
	src, err := ioutil.ReadAll(rd)
	return src, errors.WithStack(err)
}

// run loads the compiled files and starts the program at Sys.init, or at Main.main when no
// Sys.init is compiled.
func run(files []string, output io.Writer) error {
	if output == nil {
		output = os.Stdout
	}
	machine := vm.NewMachine()
	for _, file := range files {
		if err := loadVMFile(machine, file); err != nil {
			return err
		}
	}
	entry := "Main.main"
	if machine.HasFunction("Sys.init") {
		entry = "Sys.init"
	}
	logrus.WithField("entry", entry).Debug("compiler: run program")
	_, err := machine.Call(entry)
	if _, writeErr := io.WriteString(output, machine.Output()); writeErr != nil {
		err = multierr.Append(err, errors.WithStack(writeErr))
	}
	return errors.Wrapf(err, "run %s", entry)
}

func loadVMFile(machine *vm.Machine, file string) error {
	if !util.IsVMFile(file) {
		return errors.Errorf("compiler: %s is not a vm file", file)
	}
	rd, err := os.Open(file)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rd.Close()
	commands, err := vm.ParseCommands(rd)
	if err != nil {
		return errors.Wrapf(err, "parse %s", file)
	}
	return machine.Load(util.ClassName(file), commands)
}
