package users

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"solfit/database"
	"solfit/models"
	"solfit/utils"
)

// PUT /v1/users/profile
func UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil { // 5MB
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid form data"})
		return
	}

	db := database.DB
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	// Update name if provided
	name := strings.TrimSpace(r.FormValue("name"))
	if name != "" && name != "null" {
		user.Name = name
	}

	file, handler, err := r.FormFile("profile")
	if err == nil && handler != nil {
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(handler.Filename))
		allowedExts := map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		}
		if !allowedExts[ext] {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gambar harus JPG/PNG/WEBP"})
			return
		}
		if handler.Size > 5<<20 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gambar maksimal 5MB"})
			return
		}

		// Sniff the real content type from the first 512 bytes
		buf := make([]byte, 512)
		n, err := file.Read(buf)
		if err != nil && err != io.EOF {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gagal membaca gambar"})
			return
		}
		detected := http.DetectContentType(buf[:n])

		if _, err := file.Seek(0, 0); err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gagal membaca gambar"})
			return
		}
		allBytes, err := io.ReadAll(file)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gagal membaca gambar"})
			return
		}

		var imageBytes []byte
		if ext == ".webp" || detected == "image/webp" {
			// WEBP is uploaded as-is, stdlib has no decoder for it
			imageBytes = allBytes
		} else {
			if detected != "image/jpeg" && detected != "image/png" {
				utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gambar harus JPG/PNG/WEBP"})
				return
			}

			// Decode and re-encode to sanitize
			img, format, err := image.Decode(bytes.NewReader(allBytes))
			if err != nil {
				utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid image format"})
				return
			}

			var outBuf bytes.Buffer
			switch format {
			case "jpeg":
				if err := jpeg.Encode(&outBuf, img, &jpeg.Options{Quality: 85}); err != nil {
					utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal memproses gambar"})
					return
				}
			case "png":
				if err := png.Encode(&outBuf, img); err != nil {
					utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal memproses gambar"})
					return
				}
			default:
				utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Gambar harus JPG/PNG/WEBP"})
				return
			}
			imageBytes = outBuf.Bytes()
			if ext == ".jpeg" {
				ext = ".jpg"
			}
		}

		// Delete old profile image from storage if exists
		if user.Profile != nil && *user.Profile != "" {
			_ = utils.DeleteFromS3(*user.Profile)
		}

		imgName := "profile_" + strconv.FormatUint(uint64(uid), 10) + "_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ext
		if err := utils.UploadToS3(imgName, bytes.NewReader(imageBytes), int64(len(imageBytes))); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal mengupload gambar"})
			return
		}

		user.Profile = &imgName
	}

	if err := db.Save(&user).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal menyimpan data"})
		return
	}

	responseData := map[string]interface{}{
		"name": user.Name,
	}
	if user.Profile != nil {
		responseData["profile"] = *user.Profile
	} else {
		responseData["profile"] = nil
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile berhasil diperbarui",
		Data:    responseData,
	})
}

// DELETE /v1/users/profile
func DeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	// Delete profile image from storage if exists
	if user.Profile != nil && *user.Profile != "" {
		_ = utils.DeleteFromS3(*user.Profile)
	}

	user.Profile = nil
	if err := db.Save(&user).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal menghapus profile"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile berhasil dihapus",
		Data: map[string]interface{}{
			"name":    user.Name,
			"profile": nil,
		},
	})
}
