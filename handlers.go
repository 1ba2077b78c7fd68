package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bukukas/pkg/apperr"
	"bukukas/pkg/config"
	"bukukas/pkg/ledger"
	"bukukas/pkg/member"

	"github.com/gin-gonic/gin"
)

func parseID(c *gin.Context, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.NotFound(what)
	}
	return uint(id), nil
}

func (s *server) indexHandler(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := s.ledger.List(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}
	summary, err := s.ledger.Balance(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index", s.page(c, "Dashboard", gin.H{
		"Entries": entries,
		"Summary": summary,
	}))
}

func (s *server) renderTambah(c *gin.Context, status int, form ledger.Input, errs map[string]string) {
	members, err := s.members.List(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.HTML(status, "tambah", s.page(c, "Tambah Transaksi", gin.H{
		"Form":    form,
		"Members": members,
		"Errors":  errs,
	}))
}

func (s *server) tambahPage(c *gin.Context) {
	form := ledger.Input{Tanggal: time.Now().Format(ledger.DateLayout), Jenis: "masuk"}
	s.renderTambah(c, http.StatusOK, form, nil)
}

func (s *server) tambahHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+1<<20)
	fh, ferr := c.FormFile("bukti_file")
	in := ledger.Input{
		Tanggal:    c.PostForm("tanggal"),
		Keterangan: c.PostForm("keterangan"),
		Jenis:      c.PostForm("jenis"),
		Jumlah:     c.PostForm("jumlah"),
		MemberID:   c.PostForm("member_id"),
	}
	if ferr != nil && !errors.Is(ferr, http.ErrMissingFile) && !errors.Is(ferr, http.ErrNotMultipart) {
		s.log.Warn("unreadable upload", "error", ferr)
		s.renderTambah(c, http.StatusUnprocessableEntity, in, map[string]string{
			"bukti_file": "Berkas bukti tidak dapat dibaca atau terlalu besar.",
		})
		return
	}

	res, err := s.ledger.Create(c.Request.Context(), in, fh)
	if err != nil {
		if fields := apperr.FieldsOf(err); fields != nil {
			s.renderTambah(c, http.StatusUnprocessableEntity, in, fields)
			return
		}
		s.renderError(c, err)
		return
	}
	if res.AttachmentDropped {
		s.setFlash(c, "warning", "Transaksi disimpan tanpa bukti: berkas harus png, jpg, jpeg atau pdf.")
	} else {
		s.setFlash(c, "success", "Transaksi berhasil ditambahkan.")
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *server) exportHandler(c *gin.Context) {
	rows, err := s.ledger.ListAscending(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	path, err := s.exporter.Export(c.Request.Context(), rows)
	if err != nil {
		s.renderError(c, apperr.Storage("export excel", err))
		return
	}
	s.log.Info("exported ledger", "rows", len(rows), "file", path)
	c.FileAttachment(path, filepath.Base(path))
}

func (s *server) buktiHandler(c *gin.Context) {
	path, err := s.files.Path(c.Param("file"))
	if err != nil {
		s.renderError(c, apperr.NotFound("bukti"))
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.renderError(c, apperr.NotFound("bukti"))
		return
	}
	c.File(path)
}

func (s *server) renderEdit(c *gin.Context, status int, id uint, form ledger.Input, errs map[string]string) {
	c.HTML(status, "edit", s.page(c, "Edit Transaksi", gin.H{
		"ID":     id,
		"Form":   form,
		"Errors": errs,
	}))
}

func (s *server) editPage(c *gin.Context) {
	id, err := parseID(c, "kas")
	if err != nil {
		s.renderError(c, err)
		return
	}
	k, err := s.ledger.Get(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	form := ledger.Input{
		Tanggal:    k.Tanggal.Format(ledger.DateLayout),
		Keterangan: k.Keterangan,
		Jenis:      k.Jenis,
		Jumlah:     k.Jumlah.String(),
	}
	s.renderEdit(c, http.StatusOK, id, form, nil)
}

// editHandler replaces tanggal, keterangan, jenis and jumlah. Member and proof stay as created.
func (s *server) editHandler(c *gin.Context) {
	id, err := parseID(c, "kas")
	if err != nil {
		s.renderError(c, err)
		return
	}
	in := ledger.Input{
		Tanggal:    c.PostForm("tanggal"),
		Keterangan: c.PostForm("keterangan"),
		Jenis:      c.PostForm("jenis"),
		Jumlah:     c.PostForm("jumlah"),
	}
	if err := s.ledger.Update(c.Request.Context(), id, in); err != nil {
		if fields := apperr.FieldsOf(err); fields != nil {
			s.renderEdit(c, http.StatusUnprocessableEntity, id, in, fields)
			return
		}
		s.renderError(c, err)
		return
	}
	s.setFlash(c, "success", "Kas berhasil diperbarui.")
	c.Redirect(http.StatusFound, "/")
}

func (s *server) hapusHandler(c *gin.Context) {
	id, err := parseID(c, "kas")
	if err != nil {
		s.renderError(c, err)
		return
	}
	if err := s.ledger.Delete(c.Request.Context(), id); err != nil {
		s.renderError(c, err)
		return
	}
	s.setFlash(c, "danger", "Kas berhasil dihapus.")
	c.Redirect(http.StatusFound, "/")
}

func (s *server) renderMembers(c *gin.Context, status int, form member.Input, errs map[string]string) {
	members, err := s.members.List(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	id, _ := currentIdentity(c)
	c.HTML(status, "members", s.page(c, "Anggota", gin.H{
		"Members":   members,
		"CanManage": s.allowed(id, capManageMembers),
		"Form":      form,
		"Errors":    errs,
	}))
}

func (s *server) membersPage(c *gin.Context) {
	s.renderMembers(c, http.StatusOK, member.Input{}, nil)
}

func memberForm(c *gin.Context) member.Input {
	return member.Input{
		Nama:   c.PostForm("nama"),
		Kontak: c.PostForm("kontak"),
		Alamat: c.PostForm("alamat"),
	}
}

func (s *server) addMemberHandler(c *gin.Context) {
	in := memberForm(c)
	m, err := s.members.Create(c.Request.Context(), in)
	if err != nil {
		if fields := apperr.FieldsOf(err); fields != nil {
			s.renderMembers(c, http.StatusUnprocessableEntity, in, fields)
			return
		}
		s.renderError(c, err)
		return
	}
	s.setFlash(c, "success", fmt.Sprintf("Anggota %s berhasil ditambahkan.", m.Nama))
	c.Redirect(http.StatusFound, "/members")
}

func (s *server) renderEditMember(c *gin.Context, status int, id uint, form member.Input, errs map[string]string) {
	c.HTML(status, "edit_member", s.page(c, "Edit Anggota", gin.H{
		"ID":     id,
		"Form":   form,
		"Errors": errs,
	}))
}

func (s *server) editMemberPage(c *gin.Context) {
	id, err := parseID(c, "member")
	if err != nil {
		s.renderError(c, err)
		return
	}
	m, err := s.members.Get(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderEditMember(c, http.StatusOK, id, member.Input{Nama: m.Nama, Kontak: m.Kontak, Alamat: m.Alamat}, nil)
}

func (s *server) editMemberHandler(c *gin.Context) {
	id, err := parseID(c, "member")
	if err != nil {
		s.renderError(c, err)
		return
	}
	in := memberForm(c)
	if err := s.members.Update(c.Request.Context(), id, in); err != nil {
		if fields := apperr.FieldsOf(err); fields != nil {
			s.renderEditMember(c, http.StatusUnprocessableEntity, id, in, fields)
			return
		}
		s.renderError(c, err)
		return
	}
	s.setFlash(c, "success", "Anggota berhasil diperbarui.")
	c.Redirect(http.StatusFound, "/members")
}

func (s *server) deleteMemberHandler(c *gin.Context) {
	id, err := parseID(c, "member")
	if err != nil {
		s.renderError(c, err)
		return
	}
	n, err := s.members.Delete(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	msg := "Anggota berhasil dihapus."
	if n > 0 {
		switch s.members.Policy() {
		case config.DeleteCascade:
			msg = fmt.Sprintf("Anggota dan %d transaksi terkait berhasil dihapus.", n)
		default:
			msg = fmt.Sprintf("Anggota berhasil dihapus. %d transaksi kini tanpa anggota.", n)
		}
	}
	s.setFlash(c, "danger", msg)
	c.Redirect(http.StatusFound, "/members")
}
