// Package casestore loads test cases for problems whose testdata lives
// on disk as N.in / N.out pairs rather than in the database.
package casestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/edsrzf/mmap-go"

	"github.com/edplatform/judge_engine/model"
)

type Store struct {
	prefix string
}

func NewStore(prefix string) *Store {
	return &Store{prefix: prefix}
}

// Load returns the problem's test cases ordered by numeric position.
// Expected outputs are read through a mmap so large answer files are not
// copied twice; each mapping is released before returning. A pair with a
// missing .out file is an error, not a silently empty expectation.
func (s *Store) Load(problemID uint64) ([]model.TestCase, error) {
	dir := filepath.Join(s.prefix, strconv.FormatUint(problemID, 10))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read testdata dir: %w", err)
	}

	positions := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".in") {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no test cases under %s", dir)
	}
	sort.Ints(positions)

	cases := make([]model.TestCase, 0, len(positions))
	for _, pos := range positions {
		input, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.in", pos)))
		if err != nil {
			return nil, fmt.Errorf("read input %d: %w", pos, err)
		}
		expected, err := readExpected(filepath.Join(dir, fmt.Sprintf("%d.out", pos)))
		if err != nil {
			return nil, fmt.Errorf("read expected output %d: %w", pos, err)
		}
		cases = append(cases, model.TestCase{
			ProblemID:      problemID,
			Input:          string(input),
			ExpectedOutput: expected,
			Position:       pos,
			Points:         1,
		})
	}
	return cases, nil
}

func readExpected(path string) (string, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0666)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	if fi.Size() == 0 {
		return "", nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer m.Unmap()
	return string(m), nil
}
