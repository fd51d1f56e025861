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

package disk

import (
	log "github.com/sirupsen/logrus"
)

// Observer gets notified at each decision point while reading, aligning,
// reducing and writing tracks.
type Observer interface {
	//
	FormatDetected(format string, tracks int, halftracks bool)

	TrackLoaded(h Halftrack, s *Slot)

	// PassSelected reports the capture pass chosen for a halftrack of a
	// multi-pass image, together with its error count
	PassSelected(h Halftrack, pass, errors int)

	TrackAligned(h Halftrack, s *Slot)

	// TrackReduced reports the number of bytes removed by a reduction step
	TrackReduced(h Halftrack, step string, removed int)

	// TrackTruncated reports data irrecoverably cut from the end of a track
	TrackTruncated(h Halftrack, lost int)

	TrackWritten(h Halftrack, length, badGCR int)

	SectorError(t Track, sector int, code ErrorCode)
}

// NopObserver discards all notifications
type NopObserver struct{}

func (NopObserver) FormatDetected(string, int, bool)    {}
func (NopObserver) TrackLoaded(Halftrack, *Slot)        {}
func (NopObserver) PassSelected(Halftrack, int, int)    {}
func (NopObserver) TrackAligned(Halftrack, *Slot)       {}
func (NopObserver) TrackReduced(Halftrack, string, int) {}
func (NopObserver) TrackTruncated(Halftrack, int)       {}
func (NopObserver) TrackWritten(Halftrack, int, int)    {}
func (NopObserver) SectorError(Track, int, ErrorCode)   {}

// LogObserver logs all notifications via logrus
type LogObserver struct{}

//
func (LogObserver) FormatDetected(format string, tracks int, halftracks bool) {
	log.WithFields(log.Fields{
		"format":     format,
		"tracks":     tracks,
		"halftracks": halftracks,
	}).Info("image format detected")
}

//
func (LogObserver) TrackLoaded(h Halftrack, s *Slot) {
	log.WithFields(log.Fields{
		"track":   h,
		"density": s.Density,
		"length":  s.Length,
	}).Debug("track loaded")
}

//
func (LogObserver) PassSelected(h Halftrack, pass, errors int) {
	log.WithFields(log.Fields{
		"track":  h,
		"pass":   pass,
		"errors": errors,
	}).Debug("capture pass selected")
}

//
func (LogObserver) TrackAligned(h Halftrack, s *Slot) {
	log.WithFields(log.Fields{
		"track":   h,
		"density": s.Density,
		"length":  s.Length,
		"align":   s.Alignment,
	}).Debug("track aligned")
}

//
func (LogObserver) TrackReduced(h Halftrack, step string, removed int) {
	log.WithFields(log.Fields{
		"track":   h,
		"step":    step,
		"removed": removed,
	}).Debug("track reduced")
}

//
func (LogObserver) TrackTruncated(h Halftrack, lost int) {
	log.WithFields(log.Fields{
		"track": h,
		"lost":  lost,
	}).Warn("track truncated, data lost")
}

//
func (LogObserver) TrackWritten(h Halftrack, length, badGCR int) {
	log.WithFields(log.Fields{
		"track":  h,
		"length": length,
		"badgcr": badGCR,
	}).Debug("track written")
}

//
func (LogObserver) SectorError(t Track, sector int, code ErrorCode) {
	log.WithFields(log.Fields{
		"track":  t,
		"sector": sector,
		"code":   byte(code),
	}).Debugf("sector error: %s", code)
}
