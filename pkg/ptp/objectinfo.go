// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptp

import (
	"fmt"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

// ObjectInfo is the parsed body of a GetObjectInfo (0x1008) response, used
// ahead of every image/settings transfer to learn the object's size and
// filename (spec §4.4 "Image and settings transfer").
type ObjectInfo struct {
	StorageID            uint32
	ObjectFormat         uint16
	ProtectionStatus     uint16
	ObjectCompressedSize uint32
	ThumbFormat          uint16
	ThumbCompressedSize  uint32
	ThumbPixWidth        uint32
	ThumbPixHeight       uint32
	ImagePixWidth        uint32
	ImagePixHeight       uint32
	ImagePixDepth        uint32
	ParentObject         uint32
	AssociationType      uint16
	AssociationDesc      uint32
	SequenceNumber       uint32
	Filename             string
	CaptureDate          string
	ModDate              string
	Keywords             string
}

// ParseObjectInfo decodes a GetObjectInfo response body.
func ParseObjectInfo(data []byte) (*ObjectInfo, error) {
	r := ptpio.NewReader(data)
	oi := &ObjectInfo{}
	var err error

	if oi.StorageID, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info storage id: %w", err)
	}
	if oi.ObjectFormat, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info object format: %w", err)
	}
	if oi.ProtectionStatus, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info protection status: %w", err)
	}
	if oi.ObjectCompressedSize, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info compressed size: %w", err)
	}
	if oi.ThumbFormat, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info thumb format: %w", err)
	}
	if oi.ThumbCompressedSize, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info thumb compressed size: %w", err)
	}
	if oi.ThumbPixWidth, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info thumb pix width: %w", err)
	}
	if oi.ThumbPixHeight, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info thumb pix height: %w", err)
	}
	if oi.ImagePixWidth, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info image pix width: %w", err)
	}
	if oi.ImagePixHeight, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info image pix height: %w", err)
	}
	if oi.ImagePixDepth, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info image pix depth: %w", err)
	}
	if oi.ParentObject, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info parent object: %w", err)
	}
	if oi.AssociationType, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info association type: %w", err)
	}
	if oi.AssociationDesc, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info association desc: %w", err)
	}
	if oi.SequenceNumber, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: object info sequence number: %w", err)
	}
	if oi.Filename, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: object info filename: %w", err)
	}
	if oi.CaptureDate, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: object info capture date: %w", err)
	}
	if oi.ModDate, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: object info mod date: %w", err)
	}
	if oi.Keywords, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: object info keywords: %w", err)
	}
	return oi, nil
}
