package templates

import (
	"fmt"

	"github.com/0xmhha/bitquery-go/query"
)

// NFTCollectionOptions configures NFTCollection. TokenType is ERC721 or
// ERC1155.
type NFTCollectionOptions struct {
	Network   string
	Limit     int // default 20
	TokenType string
}

// NFTCollection queries collection metadata and up to Limit of its tokens
func NFTCollection(collectionAddress string, opts NFTCollectionOptions) query.Document {
	sig := newSignature()
	sig.add("collectionAddress", "String!", collectionAddress)
	sig.add("limit", "Int!", limitOr(opts.Limit, 20))
	sig.optional("tokenType", "String", opts.TokenType, "tokenType: { is: $tokenType }")

	selection := fmt.Sprintf(`nftCollection(address: $collectionAddress) {
      name
      symbol
      totalSupply
      contractType
      tokenStandard
      creator {
        address
      }
      tokens(options: { limit: $limit }, %s) {
        tokenId
        tokenURI
        lastTransferBlock
        lastTransferTimestamp
        owner {
          address
        }
        metadata {
          name
          description
          image
          attributes {
            trait_type
            value
          }
        }
      }
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetNFTCollection", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}

// NFTsByOwnerOptions configures NFTsByOwner
type NFTsByOwnerOptions struct {
	Network           string
	Limit             int // default 50
	CollectionAddress string
}

// NFTsByOwner queries the NFTs held by ownerAddress
func NFTsByOwner(ownerAddress string, opts NFTsByOwnerOptions) query.Document {
	sig := newSignature()
	sig.add("ownerAddress", "String!", ownerAddress)
	sig.add("limit", "Int!", limitOr(opts.Limit, 50))
	sig.optional("collectionAddress", "String", opts.CollectionAddress,
		"collection: { address: { is: $collectionAddress } }")

	selection := fmt.Sprintf(`nftOwnership(
      options: { limit: $limit }
      owner: { is: $ownerAddress }
      %s
    ) {
      owner {
        address
      }
      amount
      token {
        tokenId
        tokenURI
        collection {
          address
          name
          symbol
          tokenStandard
        }
        metadata {
          name
          description
          image
          attributes {
            trait_type
            value
          }
        }
      }
      lastTransferTimestamp
      lastTransferBlock
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetNFTsByOwner", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}

// NFTTransfersOptions configures NFTTransfers
type NFTTransfersOptions struct {
	Network           string
	Limit             int // default 50
	TokenID           string
	CollectionAddress string
	From              string
	To                string
}

// NFTTransfers queries recent NFT transfers across the network
func NFTTransfers(opts NFTTransfersOptions) query.Document {
	sig := newSignature()
	sig.add("limit", "Int!", limitOr(opts.Limit, 50))
	sig.optional("tokenId", "String!", opts.TokenID, "token: { tokenId: { is: $tokenId } }")
	sig.optional("collectionAddress", "String!", opts.CollectionAddress,
		"token: { collection: { address: { is: $collectionAddress } } }")
	sig.dates(opts.From, opts.To, "ISO8601DateTime!", true)

	selection := fmt.Sprintf(`nftTransfers(
      options: { limit: $limit, desc: "block.timestamp" }
      %s
    ) {
      transaction {
        hash
      }
      block {
        timestamp
        height
      }
      token {
        tokenId
        collection {
          address
          name
          symbol
        }
      }
      from {
        address
      }
      to {
        address
      }
      amount
      tokenType
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetNFTTransfers", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}
