// server.go - SRM request dispatch: file handle table over a sandboxed root

package srm

import (
	"encoding/binary"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/hpvintage/remotizer/internal/hplog"
)

// Server dispatches SRM requests against a real directory tree rooted at
// Root, tracking open handles in one table shared by all connections.
type Server struct {
	Root    string
	Handles *HandleTable
	log     *log.Logger
}

// NewServer returns a server rooted at root with a fresh handle table.
func NewServer(root string) *Server {
	return &Server{Root: root, Handles: NewHandleTable(), log: hplog.New("srmd")}
}

// Dispatch handles one decoded request and returns a response payload and
// status, enforcing the minimum payload length spec.md §4.8 requires
// before invoking the handler.
func (s *Server) Dispatch(req Request) (status int32, payload []byte) {
	if need, ok := minPayload[req.Code]; ok && len(req.Data) < need {
		return StatusBadRequestLength, zeroPad(req.Code)
	}
	switch req.Code {
	case ReqWrite:
		return s.handleWrite(req.Data)
	case ReqPosition:
		return s.handlePosition(req.Data)
	case ReqRead:
		return s.handleRead(req.Data)
	case ReqSetEOF:
		return s.handleSetEOF(req.Data)
	case ReqFileInfo:
		return s.handleFileInfo(req.Data)
	case ReqClose:
		return s.handleClose(req.Data)
	case ReqOpen:
		return s.handleOpen(req.Data)
	case ReqPurgeLink:
		return s.handlePurgeLink(req.Data)
	case ReqCatalog:
		return s.handleCatalog(req.Data)
	case ReqCreate:
		return s.handleCreate(req.Data)
	case ReqCreateLink:
		return s.handleCreateLink(req.Data)
	case ReqChangeProtect:
		return StatusOK, nil
	case ReqVolStatus:
		return s.handleVolStatus(req.Data)
	case ReqCopyFile:
		return s.handleCopyFile(req.Data)
	case ReqReset:
		return StatusOK, nil
	case ReqAreYouAlive:
		return 0x01000000, nil
	}
	return StatusUnknownRequest, nil
}

func zeroPad(code int32) []byte {
	if n, ok := respFixedSize[code]; ok {
		return make([]byte, n)
	}
	return nil
}

func u32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

func putU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func (s *Server) handleWrite(d []byte) (int32, []byte) {
	fileID := u32(d[0:4])
	accessCode := u32(d[4:8])
	requested := u32(d[8:12])
	offset := u32(d[12:16])
	data := d[16:]
	h, ok := s.Handles.Get(fileID)
	if !ok || h.file == nil {
		return StatusFileUnopened, zeroPad(ReqWrite)
	}
	if accessCode == 0 {
		if _, err := h.file.Seek(int64(offset), io.SeekStart); err != nil {
			return StatusForError(err), zeroPad(ReqWrite)
		}
	}
	n := int(requested)
	if n > len(data) {
		n = len(data)
	}
	written, err := h.file.Write(data[:n])
	if err != nil {
		return StatusForError(err), zeroPad(ReqWrite)
	}
	return StatusOK, putU32(uint32(written))
}

func (s *Server) handlePosition(d []byte) (int32, []byte) {
	fileID := u32(d[0:4])
	posType := u32(d[4:8])
	offset := int64(int32(u32(d[8:12])))
	h, ok := s.Handles.Get(fileID)
	if !ok || h.file == nil {
		return StatusFileUnopened, zeroPad(ReqPosition)
	}
	whence := io.SeekStart
	if posType == 1 {
		whence = io.SeekCurrent
	}
	pos, err := h.file.Seek(offset, whence)
	if err != nil {
		return StatusForError(err), zeroPad(ReqPosition)
	}
	return StatusOK, putU32(uint32(pos))
}

func (s *Server) handleRead(d []byte) (int32, []byte) {
	fileID := u32(d[0:4])
	requested := u32(d[8:12])
	offset := u32(d[12:16])
	h, ok := s.Handles.Get(fileID)
	if !ok || h.file == nil {
		return StatusFileUnopened, zeroPad(ReqRead)
	}
	if _, err := h.file.Seek(int64(offset), io.SeekStart); err != nil {
		return StatusForError(err), zeroPad(ReqRead)
	}
	n := int(requested)
	if n > 512 {
		n = 512
	}
	buf := make([]byte, n)
	got, err := h.file.Read(buf)
	if err != nil && err != io.EOF {
		return StatusForError(err), zeroPad(ReqRead)
	}
	status := StatusOK
	if got < n {
		status = StatusEOF
	}
	return status, buf[:got]
}

func (s *Server) handleSetEOF(d []byte) (int32, []byte) {
	fileID := u32(d[0:4])
	posType := u32(d[4:8])
	offset := int64(int32(u32(d[8:12])))
	h, ok := s.Handles.Get(fileID)
	if !ok || h.file == nil {
		return StatusFileUnopened, nil
	}
	pos := offset
	if posType == 1 {
		cur, err := h.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return StatusForError(err), nil
		}
		pos = cur + offset
	}
	if err := h.file.Truncate(pos); err != nil {
		return StatusForError(err), nil
	}
	return StatusOK, nil
}

func (s *Server) handleFileInfo(d []byte) (int32, []byte) {
	fileID := u32(d[0:4])
	h, ok := s.Handles.Get(fileID)
	if !ok {
		return StatusInvalidFileID, zeroPad(ReqFileInfo)
	}
	info, err := os.Stat(h.Path)
	if err != nil {
		return StatusForError(err), zeroPad(ReqFileInfo)
	}
	buf := make([]byte, 32)
	copy(buf, filepath.Base(h.Path))
	binary.BigEndian.PutUint32(buf[24:28], uint32(info.Size()))
	return StatusOK, buf
}

func (s *Server) handleClose(d []byte) (int32, []byte) {
	fileID := u32(d[0:4])
	if err := s.Handles.Close(fileID); err != nil {
		return StatusInvalidFileID, nil
	}
	return StatusOK, nil
}

func decodeSets(d []byte) (wd uint32, sets []string, rest []byte) {
	wd = u32(d[0:4])
	count := int(d[4])
	pos := 5
	for i := 0; i < count; i++ {
		if pos >= len(d) {
			break
		}
		l := int(d[pos])
		pos++
		sets = append(sets, TruncateSet(string(d[pos:pos+l])))
		pos += l
	}
	return wd, sets, d[pos:]
}

func (s *Server) resolveBase(wd uint32) string {
	if wd == 0 {
		return s.Root
	}
	if h, ok := s.Handles.Get(wd); ok {
		return h.Path
	}
	return s.Root
}

func (s *Server) handleOpen(d []byte) (int32, []byte) {
	wd, sets, rest := decodeSets(d)
	openType := u32(rest[:4])
	base := s.resolveBase(wd)
	path, err := ResolvePath(base, sets)
	if err != nil {
		return StatusForError(err), zeroPad(ReqOpen)
	}
	info, err := os.Stat(path)
	if err != nil {
		return StatusForError(err), zeroPad(ReqOpen)
	}
	var h *Handle
	if info.IsDir() {
		h, err = s.Handles.OpenDir(path)
	} else {
		h, err = s.Handles.OpenFile(path)
	}
	if err != nil {
		return StatusForError(err), zeroPad(ReqOpen)
	}
	_ = openType
	buf := make([]byte, 16)
	binary.BigEndian.PutUint32(buf[0:4], h.ID)
	binary.BigEndian.PutUint32(buf[4:8], uint32(info.Size()))
	if info.IsDir() {
		buf[8] = 1
	}
	return StatusOK, buf
}

func (s *Server) handlePurgeLink(d []byte) (int32, []byte) {
	wd, sets, _ := decodeSets(d)
	base := s.resolveBase(wd)
	path, err := ResolvePath(base, sets)
	if err != nil {
		return StatusForError(err), nil
	}
	if err := os.Remove(path); err != nil {
		return StatusForError(err), nil
	}
	return StatusOK, nil
}

func (s *Server) handleCatalog(d []byte) (int32, []byte) {
	maxNum := int(u32(d[0:4]))
	fileIndex := int(u32(d[4:8]))
	wd, sets, _ := decodeSets(d[8:])
	base := s.resolveBase(wd)
	path, err := ResolvePath(base, sets)
	if err != nil {
		return StatusForError(err), zeroPad(ReqCatalog)
	}
	h, err := s.Handles.OpenDir(path)
	if err != nil {
		return StatusForError(err), zeroPad(ReqCatalog)
	}
	defer s.Handles.Close(h.ID)

	if maxNum > 8 {
		maxNum = 8
	}
	entries := h.entries
	if fileIndex >= len(entries) {
		entries = nil
	} else {
		entries = entries[fileIndex:]
	}
	if len(entries) > maxNum {
		entries = entries[:maxNum]
	}
	const rowSize = 40
	buf := make([]byte, rowSize*len(entries))
	for i, e := range entries {
		row := buf[i*rowSize : (i+1)*rowSize]
		copy(row, e.Name)
		if e.IsDir {
			row[30] = 1
		}
		binary.BigEndian.PutUint32(row[32:36], uint32(e.Size))
	}
	return StatusOK, buf
}

func (s *Server) handleCreate(d []byte) (int32, []byte) {
	wd := u32(d[0:4])
	fileType := u32(d[4:8])
	count := int(d[8])
	pos := 9
	var sets []string
	for i := 0; i < count; i++ {
		l := int(d[pos])
		pos++
		sets = append(sets, TruncateSet(string(d[pos:pos+l])))
		pos += l
	}
	if len(sets) == 0 {
		return StatusBadRequestLength, zeroPad(ReqCreate)
	}
	base := s.resolveBase(wd)
	parent, err := ResolvePath(base, sets[:len(sets)-1])
	if err != nil {
		return StatusForError(err), zeroPad(ReqCreate)
	}
	leaf := EncodeLIFName(sets[len(sets)-1], 0, uint16(fileType))
	full := filepath.Join(parent, leaf)

	if fileType == 0xFFFF { // directory sentinel
		err = os.Mkdir(filepath.Join(parent, sets[len(sets)-1]), 0o755)
	} else {
		var f *os.File
		f, err = os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if f != nil {
			f.Close()
		}
	}
	if err != nil {
		return StatusForError(err), zeroPad(ReqCreate)
	}
	return StatusOK, putU32(0)
}

func (s *Server) handleCreateLink(d []byte) (int32, []byte) {
	oldWD, oldSets, rest := decodeSets(d)
	newWD, newSets, rest2 := decodeSets(rest)
	purge := len(rest2) > 0 && rest2[0] != 0

	oldPath, err := ResolvePath(s.resolveBase(oldWD), oldSets)
	if err != nil {
		return StatusForError(err), nil
	}
	newBase := s.resolveBase(newWD)
	newPath := filepath.Join(newBase, filepath.Base(newPathComponent(newSets)))

	if purge {
		err = os.Rename(oldPath, newPath)
	} else {
		err = os.Link(oldPath, newPath)
	}
	if err != nil {
		return StatusForError(err), nil
	}
	return StatusOK, nil
}

func newPathComponent(sets []string) string {
	if len(sets) == 0 {
		return ""
	}
	return sets[len(sets)-1]
}

func (s *Server) handleVolStatus(d []byte) (int32, []byte) {
	buf := make([]byte, 32)
	copy(buf, filepath.Base(s.Root))
	var total uint64
	filepath.Walk(s.Root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += uint64(info.Size())
		}
		return nil
	})
	binary.BigEndian.PutUint32(buf[24:28], uint32(total))
	return StatusOK, buf
}

func (s *Server) handleCopyFile(d []byte) (int32, []byte) {
	srcID := u32(d[0:4])
	dstID := u32(d[4:8])
	srcOffset := u32(d[8:12])
	dstOffset := u32(d[12:16])
	count := u32(d[16:20])

	src, ok1 := s.Handles.Get(srcID)
	dst, ok2 := s.Handles.Get(dstID)
	if !ok1 || !ok2 || src.file == nil || dst.file == nil {
		return StatusFileUnopened, zeroPad(ReqCopyFile)
	}
	if _, err := src.file.Seek(int64(srcOffset), io.SeekStart); err != nil {
		return StatusForError(err), zeroPad(ReqCopyFile)
	}
	if _, err := dst.file.Seek(int64(dstOffset), io.SeekStart); err != nil {
		return StatusForError(err), zeroPad(ReqCopyFile)
	}
	n, err := io.CopyN(dst.file, src.file, int64(count))
	if err != nil && err != io.EOF {
		return StatusForError(err), zeroPad(ReqCopyFile)
	}
	return StatusOK, putU32(uint32(n))
}
