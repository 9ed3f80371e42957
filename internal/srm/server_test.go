package srm

import (
	"os"
	"path/filepath"
	"testing"
)

func encodeSets(wd uint32, sets []string) []byte {
	buf := []byte{}
	buf = append(buf, putU32(wd)...)
	buf = append(buf, byte(len(sets)))
	for _, s := range sets {
		buf = append(buf, byte(len(s)))
		buf = append(buf, []byte(s)...)
	}
	return buf
}

func TestOpenReadWriteRoundTrip(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "DATA"), []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewServer(root)

	openData := append(encodeSets(0, []string{"DATA"}), putU32(0)...)
	status, resp := s.Dispatch(Request{Code: ReqOpen, Data: openData})
	if status != StatusOK {
		t.Fatalf("open status = %d", status)
	}
	fileID := u32(resp[0:4])

	readData := append(putU32(fileID), putU32(0)...)
	readData = append(readData, putU32(5)...)
	readData = append(readData, putU32(0)...)
	status, body := s.Dispatch(Request{Code: ReqRead, Data: readData})
	if status != StatusOK || string(body) != "hello" {
		t.Fatalf("read = %q status=%d", body, status)
	}

	status, _ = s.Dispatch(Request{Code: ReqClose, Data: putU32(fileID)})
	if status != StatusOK {
		t.Fatalf("close status = %d", status)
	}
	if _, ok := s.Handles.Get(fileID); ok {
		t.Fatalf("handle still present after close")
	}

	// spec.md §8 scenario 6: a READ on an id already CLOSEd returns the
	// real SRM wire error 31019 (FILE_UNOPENED), not a placeholder.
	status, _ = s.Dispatch(Request{Code: ReqRead, Data: readData})
	if status != 31019 {
		t.Fatalf("read-after-close status = %d, want 31019", status)
	}
}

func TestCatalogSortsDirsBeforeFiles(t *testing.T) {
	root := t.TempDir()
	os.Mkdir(filepath.Join(root, "zdir"), 0o755)
	os.WriteFile(filepath.Join(root, "afile"), []byte("x"), 0o644)
	s := NewServer(root)

	catData := append(putU32(8), putU32(0)...)
	catData = append(catData, encodeSets(0, nil)...)
	status, body := s.Dispatch(Request{Code: ReqCatalog, Data: catData})
	if status != StatusOK {
		t.Fatalf("catalog status = %d", status)
	}
	if len(body) != 40*2 {
		t.Fatalf("catalog body len = %d, want 80", len(body))
	}
	firstName := string(bytesTrimZero(body[0:30]))
	if firstName != "zdir" {
		t.Fatalf("first entry = %q, want zdir (dirs sort first)", firstName)
	}
}

func bytesTrimZero(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func TestAreYouAliveAndReset(t *testing.T) {
	s := NewServer(t.TempDir())
	status, _ := s.Dispatch(Request{Code: ReqAreYouAlive})
	if status != 0x01000000 {
		t.Fatalf("status = %#x, want 0x01000000", status)
	}
	status, _ = s.Dispatch(Request{Code: ReqReset})
	if status != StatusOK {
		t.Fatalf("reset status = %d", status)
	}
}

func TestUnderLengthRequestRejected(t *testing.T) {
	s := NewServer(t.TempDir())
	status, body := s.Dispatch(Request{Code: ReqWrite, Data: []byte{0x01}})
	if status != StatusBadRequestLength {
		t.Fatalf("status = %d, want StatusBadRequestLength", status)
	}
	if len(body) != respFixedSize[ReqWrite] {
		t.Fatalf("body len = %d, want %d", len(body), respFixedSize[ReqWrite])
	}
}
