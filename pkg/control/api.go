/*
   GCRConv - Commodore 1541 disk image converter
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of GCRConv.

   GCRConv is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   GCRConv is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with GCRConv. If not, see <http://www.gnu.org/licenses/>.
*/

package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrconv/pkg/digest"
	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/format"
	"github.com/xelalexv/gcrconv/pkg/gcr"
	"github.com/xelalexv/gcrconv/pkg/repo"
)

// largest accepted image upload, enough for a halftrack NB2 image
const maxImageSize = 32 * 1024 * 1024

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(addr, repository string, p *disk.Policy) APIServer {
	return newAPI(addr, repository, p)
}

//
func newAPI(addr, repository string, p *disk.Policy) *api {
	if p == nil {
		p = disk.DefaultPolicy()
	}
	return &api{address: addr, repository: repository, policy: p,
		maxImage: maxImageSize}
}

//
type api struct {
	address    string
	repository string
	policy     *disk.Policy
	maxImage   int64
	server     *http.Server
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:8541", a.address)
	}

	log.Infof("GCRConv API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.router()}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func (a *api) router() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "convert", "POST", "/convert", a.convert)
	addRoute(router, "digest", "POST", "/digest", a.digest)
	addRoute(router, "info", "POST", "/info", a.info)
	addRoute(router, "images", "GET", "/images", a.images)

	return router
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

// converter returns a converter using the policy given with the request, or
// the server's policy if the request does not carry any policy settings. On
// error, nil is returned and the error has been sent.
func (a *api) converter(w http.ResponseWriter,
	req *http.Request) *format.Converter {

	p := a.policy

	s, err := parsePolicyQuery(req.URL.Query())
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return nil
	}
	if s != nil {
		if p, err = s.Policy(); handleError(
			err, http.StatusUnprocessableEntity, w) {
			return nil
		}
	}

	return format.NewConverter(gcr.New(p.GapMatch()), p, disk.LogObserver{})
}

//
func (a *api) convert(w http.ResponseWriter, req *http.Request) {

	to, err := getArg(req, "to")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if to == "" {
		handleError(fmt.Errorf("missing output format"),
			http.StatusUnprocessableEntity, w)
		return
	}

	conv := a.converter(w, req)
	if conv == nil {
		return
	}

	in, typ := a.getImage(w, req)
	if in == nil {
		return
	}
	defer in.Close()

	var out bytes.Buffer
	if err := conv.Convert(in, typ, &out, to); err != nil {
		handleError(err, errorStatus(err), w)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Bytes()); err != nil {
		log.Errorf("problem sending image: %v", err)
	}
}

//
func (a *api) digest(w http.ResponseWriter, req *http.Request) {

	arg, err := getArg(req, "algo")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	alg, err := digest.ParseAlgorithm(arg)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if arg, err = getArg(req, "scope"); handleError(
		err, http.StatusUnprocessableEntity, w) {
		return
	}
	scope, err := digest.ParseScope(arg)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	conv := a.converter(w, req)
	if conv == nil {
		return
	}

	in, typ := a.getImage(w, req)
	if in == nil {
		return
	}
	defer in.Close()

	store, err := conv.Load(in, typ, true)
	if err != nil {
		handleError(err, errorStatus(err), w)
		return
	}

	sum, err := digest.Compute(store, conv.Codec(), alg, scope)
	if err != nil {
		handleError(err, errorStatus(err), w)
		return
	}

	reply := newDigestReply(sum)
	if wantsJSON(req) {
		sendJSONReply(reply, http.StatusOK, w)
	} else {
		sendReply([]byte(reply.String()), http.StatusOK, w)
	}
}

//
func (a *api) info(w http.ResponseWriter, req *http.Request) {

	conv := a.converter(w, req)
	if conv == nil {
		return
	}

	in, typ := a.getImage(w, req)
	if in == nil {
		return
	}
	defer in.Close()

	store, err := conv.Load(in, typ, true)
	if err != nil {
		handleError(err, errorStatus(err), w)
		return
	}

	if wantsJSON(req) {
		info, err := format.Describe(store, conv.Codec())
		if err != nil {
			handleError(err, errorStatus(err), w)
			return
		}
		sendJSONReply(newInfoReply(info, store, conv.Policy()), http.StatusOK, w)
		return
	}

	var out bytes.Buffer
	if err := format.List(store, conv.Codec(), conv.Policy(), &out); err != nil {
		handleError(err, errorStatus(err), w)
		return
	}
	sendReply(out.Bytes(), http.StatusOK, w)
}

//
func (a *api) images(w http.ResponseWriter, req *http.Request) {

	list, err := repo.List(a.repository, "nib", "nb2", "g64", "d64")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(list, http.StatusOK, w)
	} else {
		sendReply([]byte(strings.Join(list, "\n")), http.StatusOK, w)
	}
}

// getImage returns the image sent with the request, either in the body, or
// as a repo reference in the ref parameter. The image format is taken from
// the type parameter, or the reference's file extension. Bodies are limited
// to maxImage bytes. On error, nil is returned and the error has been sent.
func (a *api) getImage(w http.ResponseWriter,
	req *http.Request) (io.ReadCloser, string) {

	typ, err := getArg(req, "type")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return nil, ""
	}

	ref, err := getArg(req, "ref")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return nil, ""
	}

	if ref != "" {
		in, err := repo.Resolve(ref, a.repository)
		if handleError(err, http.StatusUnprocessableEntity, w) {
			return nil, ""
		}
		if typ == "" {
			typ = format.TypeFromName(ref)
		}
		return in, typ
	}

	if typ == "" {
		handleError(fmt.Errorf("missing image type"),
			http.StatusUnprocessableEntity, w)
		return nil, ""
	}

	return http.MaxBytesReader(w, req.Body, a.maxImage), typ
}

// errorStatus maps errors caused by the image sent by the client to 422, or
// to 413 if the image is too large
func errorStatus(err error) int {

	var tooLarge *http.MaxBytesError
	var fe *format.FormatError
	var fatal *disk.FatalError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &fe),
		errors.As(err, &fatal),
		errors.Is(err, format.ErrUnsupportedFormat),
		errors.Is(err, format.ErrNotWritable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

//
func getArg(req *http.Request, arg string) (string, error) {
	ret := req.URL.Query().Get(arg)
	if ret != "" {
		return url.QueryUnescape(ret)
	}
	return ret, nil
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return req.Header.Get("Accept") == "application/json"
}
